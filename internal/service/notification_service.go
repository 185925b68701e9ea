package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/qs3c/hms_go_server/internal/model"
	"github.com/qs3c/hms_go_server/internal/pkg/logger"
	"github.com/qs3c/hms_go_server/internal/pkg/pubsub"
	"github.com/qs3c/hms_go_server/internal/pkg/queue"
	"github.com/qs3c/hms_go_server/internal/repository"
)

// 员工通知的接收角色
var (
	rolesFrontDesk = []string{model.RoleAdmin, model.RoleManager, model.RoleReceptionist}
	rolesManagers  = []string{model.RoleAdmin, model.RoleManager}
)

const emailDedupTTL = 8 * 24 * time.Hour

// NotificationPublisher 实时推送通道
type NotificationPublisher interface {
	PublishNotification(ctx context.Context, msg *pubsub.NotificationMessage) error
}

// EmailQueue 邮件任务队列
type EmailQueue interface {
	Push(ctx context.Context, job *queue.EmailJob) error
	PushOnce(ctx context.Context, key string, job *queue.EmailJob, ttl time.Duration) (bool, error)
}

// Notice 一条待发送的站内通知
type Notice struct {
	TenantID     int64
	RecipientIDs []int64
	Title        string
	Message      string
	Type         string
	Link         string
	DedupKey     string // 非空时每个接收人只会收到一次
}

// NotificationService 写入站内通知、实时推送、投递邮件任务
type NotificationService struct {
	notificationRepo *repository.NotificationRepository
	tenantRepo       *repository.TenantRepository
	publisher        NotificationPublisher
	mailQueue        EmailQueue
	log              *slog.Logger
}

// NewNotificationService publisher 与 mailQueue 可以为 nil
func NewNotificationService(
	notificationRepo *repository.NotificationRepository,
	tenantRepo *repository.TenantRepository,
	publisher NotificationPublisher,
	mailQueue EmailQueue,
) *NotificationService {
	return &NotificationService{
		notificationRepo: notificationRepo,
		tenantRepo:       tenantRepo,
		publisher:        publisher,
		mailQueue:        mailQueue,
		log:              logger.WithComponent("notification"),
	}
}

// Notify 写入通知并推送，返回新写入的条数；去重命中的接收人不计数
func (s *NotificationService) Notify(ctx context.Context, n Notice) (int, error) {
	if n.Type == "" {
		n.Type = model.NotifyInfo
	}

	created := 0
	for _, recipientID := range n.RecipientIDs {
		record := &model.Notification{
			TenantID:    n.TenantID,
			RecipientID: recipientID,
			Title:       n.Title,
			Message:     n.Message,
			Type:        n.Type,
			Link:        n.Link,
		}
		if n.DedupKey != "" {
			key := n.DedupKey
			record.DedupKey = &key
		}

		ok, err := s.notificationRepo.Create(ctx, record)
		if err != nil {
			return created, err
		}
		if !ok {
			continue
		}
		created++
		s.publish(ctx, record)
	}
	return created, nil
}

// NotifyStaff 通知租户内指定角色的全部在职成员
func (s *NotificationService) NotifyStaff(ctx context.Context, roles []string, n Notice) (int, error) {
	ids, err := s.tenantRepo.ListStaffIDs(ctx, n.TenantID, roles)
	if err != nil {
		return 0, err
	}
	n.RecipientIDs = ids
	return s.Notify(ctx, n)
}

// Flush 事务提交后发送收集的通知和邮件，失败只记录日志
func (s *NotificationService) Flush(ctx context.Context, o *outbox) {
	if o == nil {
		return
	}
	for _, sn := range o.notices {
		var err error
		if len(sn.roles) > 0 {
			_, err = s.NotifyStaff(ctx, sn.roles, sn.notice)
		} else {
			_, err = s.Notify(ctx, sn.notice)
		}
		if err != nil {
			s.log.Error("failed to deliver notification",
				"tenant_id", sn.notice.TenantID, "title", sn.notice.Title, "error", err)
		}
	}
	for _, e := range o.emails {
		if _, err := s.Email(ctx, e.job, e.dedupKey); err != nil {
			s.log.Error("failed to enqueue email", "template", e.job.Template, "error", err)
		}
	}
}

// Email 投递邮件任务；dedupKey 非空时同一 key 只投递一次
func (s *NotificationService) Email(ctx context.Context, job *queue.EmailJob, dedupKey string) (bool, error) {
	if s.mailQueue == nil || job.To == "" {
		return false, nil
	}
	if dedupKey == "" {
		if err := s.mailQueue.Push(ctx, job); err != nil {
			return false, err
		}
		return true, nil
	}
	return s.mailQueue.PushOnce(ctx, dedupKey, job, emailDedupTTL)
}

// List 当前用户在租户内的通知
func (s *NotificationService) List(ctx context.Context, tenantID, userID int64, unreadOnly bool, page, pageSize int) ([]model.Notification, int64, error) {
	return s.notificationRepo.ListByRecipient(ctx, tenantID, userID, unreadOnly, page, pageSize)
}

// MarkRead 标记已读，只能操作自己的通知
func (s *NotificationService) MarkRead(ctx context.Context, id, userID int64) error {
	n, err := s.notificationRepo.MarkRead(ctx, id, userID)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotificationNotFound
	}
	return nil
}

// hotelName 邮件里展示的酒店名
func (s *NotificationService) hotelName(ctx context.Context, tenantID int64) string {
	t, err := s.tenantRepo.GetByID(ctx, tenantID)
	if err != nil {
		return ""
	}
	if t.HotelName != "" {
		return t.HotelName
	}
	return t.Name
}

func (s *NotificationService) publish(ctx context.Context, n *model.Notification) {
	if s.publisher == nil {
		return
	}
	err := s.publisher.PublishNotification(ctx, &pubsub.NotificationMessage{
		TenantID:       n.TenantID,
		RecipientID:    n.RecipientID,
		NotificationID: n.ID,
		Title:          n.Title,
		Message:        n.Message,
		Level:          n.Type,
		Link:           n.Link,
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		s.log.Warn("failed to publish notification", "notification_id", n.ID, "error", err)
	}
}

// outbox 事务内收集、提交后发送的通知与邮件
type outbox struct {
	notices []staffNotice
	emails  []pendingEmail
}

type staffNotice struct {
	roles  []string // 为空时发送给 notice.RecipientIDs
	notice Notice
}

type pendingEmail struct {
	job      *queue.EmailJob
	dedupKey string
}

func (o *outbox) toStaff(roles []string, n Notice) {
	o.notices = append(o.notices, staffNotice{roles: roles, notice: n})
}

func (o *outbox) toUsers(n Notice) {
	if len(n.RecipientIDs) == 0 {
		return
	}
	o.notices = append(o.notices, staffNotice{notice: n})
}

func (o *outbox) email(job *queue.EmailJob, dedupKey string) {
	if job == nil || job.To == "" {
		return
	}
	o.emails = append(o.emails, pendingEmail{job: job, dedupKey: dedupKey})
}
