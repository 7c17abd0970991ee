package scheduler

import (
	"context"
	"fmt"
	"log"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/hray3182/pagecal/internal/calendar"
	"github.com/hray3182/pagecal/internal/format"
	"github.com/hray3182/pagecal/internal/recurrence"
	"github.com/hray3182/pagecal/internal/repository"
)

// Sender is the part of *tgbotapi.BotAPI the scheduler needs.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Claimer records which reminders went out. *repository.NotificationRepository
// implements it.
type Claimer interface {
	Claim(ctx context.Context, pageID, kind string, at time.Time) (bool, error)
	Release(ctx context.Context, pageID, kind string, at time.Time) error
}

type Options struct {
	ChatID       int64
	Location     *time.Location
	AgendaTime   recurrence.Clock
	ReminderLead time.Duration
}

type Scheduler struct {
	sender        Sender
	pages         *repository.PageRepository
	completions   *repository.CompletionRepository
	notifications Claimer
	opts          Options
	checkInterval time.Duration
	lastAgenda    recurrence.Date
}

func New(
	sender Sender,
	pages *repository.PageRepository,
	completions *repository.CompletionRepository,
	notifications Claimer,
	opts Options,
) *Scheduler {
	return &Scheduler{
		sender:        sender,
		pages:         pages,
		completions:   completions,
		notifications: notifications,
		opts:          opts,
		checkInterval: 1 * time.Minute,
	}
}

func (s *Scheduler) Start(ctx context.Context) {
	log.Println("Scheduler started")
	ticker := time.NewTicker(s.checkInterval)
	defer ticker.Stop()

	s.check(ctx)

	for {
		select {
		case <-ctx.Done():
			log.Println("Scheduler stopped")
			return
		case <-ticker.C:
			s.check(ctx)
		}
	}
}

func (s *Scheduler) check(ctx context.Context) {
	now := time.Now().In(s.opts.Location)
	s.checkAgenda(ctx, now)
	s.checkReminders(ctx, now)
}

func (s *Scheduler) checkAgenda(ctx context.Context, now time.Time) {
	if !agendaDue(now, s.opts.AgendaTime, s.lastAgenda) {
		return
	}
	today := recurrence.DateOf(now)

	items, err := s.items(ctx, today, today)
	if err != nil {
		log.Printf("Failed to build daily agenda: %v", err)
		return
	}

	if err := s.send(format.Agenda("☀️ Today's agenda", items, "Nothing planned.")); err != nil {
		log.Printf("Failed to send daily agenda: %v", err)
		return
	}
	s.lastAgenda = today
	log.Printf("Sent daily agenda for %s (%d items)", today, len(items))
}

func (s *Scheduler) checkReminders(ctx context.Context, now time.Time) {
	if s.opts.ReminderLead <= 0 {
		return
	}
	from := recurrence.DateOf(now)
	to := recurrence.DateOf(now.Add(s.opts.ReminderLead))

	items, err := s.items(ctx, from, to)
	if err != nil {
		log.Printf("Failed to get upcoming items: %v", err)
		return
	}

	s.sendReminders(ctx, dueReminders(items, s.opts.Location, now, s.opts.ReminderLead), now)
}

// sendReminders claims and sends each reminder. A claim whose send fails
// is released so the next check retries it.
func (s *Scheduler) sendReminders(ctx context.Context, reminders []reminder, now time.Time) {
	for _, r := range reminders {
		claimed, err := s.notifications.Claim(ctx, r.item.PageID, repository.NotifyReminder, r.at)
		if err != nil {
			log.Printf("Failed to claim reminder for page %s: %v", r.item.PageID, err)
			continue
		}
		if !claimed {
			continue
		}

		if err := s.send(format.Reminder(r.item, r.at, now)); err != nil {
			log.Printf("Failed to send reminder for page %s: %v", r.item.PageID, err)
			if err := s.notifications.Release(ctx, r.item.PageID, repository.NotifyReminder, r.at); err != nil {
				log.Printf("Failed to release reminder for page %s: %v", r.item.PageID, err)
			}
			continue
		}
		log.Printf("Sent reminder for page %s at %s", r.item.PageID, r.at.Format(time.RFC3339))
	}
}

func (s *Scheduler) items(ctx context.Context, from, to recurrence.Date) ([]calendar.Item, error) {
	pages, err := s.pages.GetDated(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get dated pages: %w", err)
	}
	logs, err := s.completions.GetByDateRange(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to get completion logs: %w", err)
	}
	return calendar.Build(pages, logs, from, to)
}

func (s *Scheduler) send(text string) error {
	msg := tgbotapi.NewMessage(s.opts.ChatID, text)
	msg.ParseMode = format.ParseMode
	_, err := s.sender.Send(msg)
	return err
}

// agendaDue reports whether the daily agenda should go out: the local
// clock has passed at and nothing was sent today yet.
func agendaDue(now time.Time, at recurrence.Clock, last recurrence.Date) bool {
	if recurrence.DateOf(now) == last {
		return false
	}
	return now.Hour()*60+now.Minute() >= at.Hour*60+at.Minute
}

type reminder struct {
	item calendar.Item
	at   time.Time
}

// dueReminders picks the timed, uncompleted items starting within
// [now, now+lead].
func dueReminders(items []calendar.Item, loc *time.Location, now time.Time, lead time.Duration) []reminder {
	var out []reminder
	for _, item := range items {
		if item.StartTime == "" || item.Completed {
			continue
		}
		c, err := recurrence.ParseClock(item.StartTime)
		if err != nil {
			continue
		}
		at := c.On(item.Date, loc)
		if at.Before(now) || at.After(now.Add(lead)) {
			continue
		}
		out = append(out, reminder{item: item, at: at})
	}
	return out
}
