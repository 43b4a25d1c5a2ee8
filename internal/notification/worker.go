package notification

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"
	"gorm.io/gorm"

	"parking-slot-service/internal/model"
)

// ErrQueueFull is returned by Dispatch when no worker can take the job.
var ErrQueueFull = errors.New("notification queue is full")

// NotificationSender defines the interface for sending a web push notification.
type NotificationSender interface {
	Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// WebPushSender is a real implementation of NotificationSender using the webpush library.
type WebPushSender struct{}

// Send sends a notification using the webpush library.
func (s *WebPushSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return webpush.SendNotification(payload, sub, options)
}

// WorkerPool tells subscribers that a parking slot became available.
type WorkerPool struct {
	size    int
	jobs    chan int64
	db      *gorm.DB
	webpush *webpush.Options
	sender  NotificationSender
}

// NewWorkerPool creates a new worker pool.
func NewWorkerPool(size int, db *gorm.DB, webpushOptions *webpush.Options) *WorkerPool {
	return &WorkerPool{
		size:    size,
		jobs:    make(chan int64, size*16),
		db:      db,
		webpush: webpushOptions,
		sender:  &WebPushSender{},
	}
}

// WithSender replaces the push transport, e.g. with a recording fake.
func (wp *WorkerPool) WithSender(sender NotificationSender) *WorkerPool {
	wp.sender = sender
	return wp
}

// Start launches the worker goroutines.
func (wp *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < wp.size; i++ {
		go wp.worker(ctx, i)
	}
}

func (wp *WorkerPool) worker(ctx context.Context, id int) {
	log.Printf("Worker %d started", id)
	for {
		select {
		case slotID := <-wp.jobs:
			wp.sendNotificationsForSlot(ctx, slotID)
		case <-ctx.Done():
			log.Printf("Worker %d shutting down", id)
			return
		}
	}
}

// Dispatch queues a slot for notification without waiting. When the queue
// is full the notification is dropped and ErrQueueFull is returned.
func (wp *WorkerPool) Dispatch(_ context.Context, slotID int64) error {
	select {
	case wp.jobs <- slotID:
		return nil
	default:
		return fmt.Errorf("dispatch slot %d: %w", slotID, ErrQueueFull)
	}
}

func (wp *WorkerPool) sendNotificationsForSlot(ctx context.Context, slotID int64) {
	var subscriptions []model.PushSubscription
	err := wp.db.WithContext(ctx).
		Joins("JOIN subscription_slot_mapping ssm ON ssm.push_subscription_endpoint = push_subscriptions.endpoint").
		Where("ssm.parking_slot_id = ?", slotID).
		Find(&subscriptions).Error
	if err != nil {
		log.Printf("Error fetching subscriptions for slot %d: %v", slotID, err)
		return
	}

	if len(subscriptions) == 0 {
		return
	}

	log.Printf("Sending %d notifications for slot %d", len(subscriptions), slotID)

	message := fmt.Sprintf("Parking slot %d is now available", slotID)
	var slot model.ParkingSlot
	if err := wp.db.WithContext(ctx).
		Select("type", "location").
		First(&slot, slotID).Error; err != nil {
		log.Printf("Error fetching slot %d: %v", slotID, err)
	} else if slot.Location != "" {
		message = fmt.Sprintf("Parking slot %s (%s) is now available", slot.Location, slot.Type)
	}

	for _, sub := range subscriptions {
		wp.sendNotification(ctx, sub, []byte(message))
	}
}

func (wp *WorkerPool) sendNotification(ctx context.Context, sub model.PushSubscription, payload []byte) {
	wpSub := &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256DH,
			Auth:   sub.Auth,
		},
	}

	resp, err := wp.sender.Send(payload, wpSub, wp.webpush)
	if err != nil {
		log.Printf("Error sending notification to %s: %v", sub.Endpoint, err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusGone {
		log.Printf("Subscription for endpoint %s is expired. Deleting.", sub.Endpoint)
		err := wp.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tx.Exec("DELETE FROM subscription_slot_mapping WHERE push_subscription_endpoint = ?", sub.Endpoint).Error; err != nil {
				return err
			}
			return tx.Delete(&model.PushSubscription{Endpoint: sub.Endpoint}).Error
		})
		if err != nil {
			log.Printf("Failed to delete expired subscription %s: %v", sub.Endpoint, err)
		}
	}
}
