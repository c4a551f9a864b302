package services

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"socaPassportAPI/internal/metrics"
	"socaPassportAPI/internal/notification"
)

// PushNotificationProvider delivers n to every token and returns the tokens
// the push service no longer accepts.
type PushNotificationProvider interface {
	SendPush(ctx context.Context, tokens []notification.DeviceToken, n *notification.Notification) (stale []string, err error)
}

// NotificationDispatcher fans progression notifications out to a small
// worker pool. Sending never blocks the caller; a full queue drops the job.
type NotificationDispatcher struct {
	devices      DeviceStore
	pushProvider PushNotificationProvider
	workers      int
	jobQueue     chan *notification.Notification
	stopChan     chan struct{}
	stopOnce     sync.Once
	wg           sync.WaitGroup
	sendTimeout  time.Duration
}

func NewNotificationDispatcher(devices DeviceStore, provider PushNotificationProvider, workers, queueSize int) *NotificationDispatcher {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 1 {
		queueSize = 1
	}
	d := &NotificationDispatcher{
		devices:      devices,
		pushProvider: provider,
		workers:      workers,
		jobQueue:     make(chan *notification.Notification, queueSize),
		stopChan:     make(chan struct{}),
		sendTimeout:  10 * time.Second,
	}
	d.startWorkers()
	return d
}

func (d *NotificationDispatcher) startWorkers() {
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.worker()
	}
}

func (d *NotificationDispatcher) worker() {
	defer d.wg.Done()
	for {
		select {
		case n := <-d.jobQueue:
			d.processJob(n)
		case <-d.stopChan:
			// drain what is already queued
			for {
				select {
				case n := <-d.jobQueue:
					d.processJob(n)
				default:
					return
				}
			}
		}
	}
}

func (d *NotificationDispatcher) processJob(n *notification.Notification) {
	ctx, cancel := context.WithTimeout(context.Background(), d.sendTimeout)
	defer cancel()

	tokens, err := d.devices.DevicesFor(ctx, n.UserID)
	if err != nil {
		zap.L().Warn("notification: device lookup failed", zap.String("user_id", n.UserID), zap.Error(err))
		metrics.NotificationsSent.WithLabelValues("error").Inc()
		return
	}
	if len(tokens) == 0 {
		metrics.NotificationsSent.WithLabelValues("no_devices").Inc()
		return
	}

	stale, err := d.pushProvider.SendPush(ctx, tokens, n)
	d.forgetDevices(ctx, n.UserID, stale)
	if err != nil {
		zap.L().Warn("notification: push failed",
			zap.String("user_id", n.UserID),
			zap.String("type", string(n.Type)),
			zap.Error(err))
		metrics.NotificationsSent.WithLabelValues("error").Inc()
		return
	}
	metrics.NotificationsSent.WithLabelValues("sent").Inc()
}

func (d *NotificationDispatcher) forgetDevices(ctx context.Context, userID string, stale []string) {
	for _, token := range stale {
		if err := d.devices.RemoveDevice(ctx, token); err != nil {
			zap.L().Warn("notification: failed to remove stale device", zap.String("user_id", userID), zap.Error(err))
			continue
		}
		metrics.NotificationsSent.WithLabelValues("unregistered").Inc()
		zap.L().Info("notification: removed unregistered device", zap.String("user_id", userID))
	}
}

// Enqueue reports whether the notification was accepted.
func (d *NotificationDispatcher) Enqueue(n *notification.Notification) bool {
	select {
	case <-d.stopChan:
		return false
	default:
	}

	select {
	case d.jobQueue <- n:
		return true
	default:
		zap.L().Warn("notification: queue full, dropping", zap.String("user_id", n.UserID), zap.String("type", string(n.Type)))
		metrics.NotificationsSent.WithLabelValues("dropped").Inc()
		return false
	}
}

// Stop lets workers finish queued jobs and waits for them.
func (d *NotificationDispatcher) Stop() {
	d.stopOnce.Do(func() {
		zap.L().Info("stopping notification dispatcher")
		close(d.stopChan)
	})
	d.wg.Wait()
}

// LogPushProvider stands in when Firebase is not configured.
type LogPushProvider struct{}

func (LogPushProvider) SendPush(ctx context.Context, tokens []notification.DeviceToken, n *notification.Notification) ([]string, error) {
	zap.L().Info("push (not sent, no provider)",
		zap.Int("devices", len(tokens)),
		zap.String("title", n.Title),
		zap.String("body", n.Body))
	return nil, nil
}
