package estate

import "context"

// Inbox is a page of notifications plus the unread total.
type Inbox struct {
	List[Notification]
	UnreadCount int `json:"unread_count"`
}

func (s *Service) Notifications(ctx context.Context, actor Actor, p Page) (Inbox, error) {
	p = p.normalized()
	items, total, err := s.store.ListNotifications(ctx, actor.ID, p)
	if err != nil {
		return Inbox{}, err
	}
	unread, err := s.store.UnreadCount(ctx, actor.ID)
	if err != nil {
		return Inbox{}, err
	}
	return Inbox{List: List[Notification]{Items: items, Pagination: p.Describe(total)}, UnreadCount: unread}, nil
}

func (s *Service) MarkNotificationRead(ctx context.Context, actor Actor, id string) error {
	return s.store.MarkNotificationRead(ctx, actor.ID, id)
}

func (s *Service) MarkAllNotificationsRead(ctx context.Context, actor Actor) (int, error) {
	return s.store.MarkAllNotificationsRead(ctx, actor.ID)
}

func (s *Service) UnreadCount(ctx context.Context, actor Actor) (int, error) {
	return s.store.UnreadCount(ctx, actor.ID)
}
