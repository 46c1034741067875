// Package bot serves the listings through a Telegram inline-keyboard menu.
package bot

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"cartelera-bot/internal/config"
	"cartelera-bot/internal/scraper"
	"cartelera-bot/pkg/logger"
	"cartelera-bot/pkg/retry"
	"cartelera-bot/pkg/tmdb"
)

// ListingSource provides the cinemas and their current listings.
type ListingSource interface {
	Cinemas() []config.CinemaConfig
	Cinema(id string) (config.CinemaConfig, bool)
	Listings(ctx context.Context, cinemaID string) ([]scraper.Listing, error)
}

// MovieLookup finds film metadata by title.
type MovieLookup interface {
	Search(ctx context.Context, title string) (*tmdb.Movie, bool)
	PosterURL(posterPath string) string
}

// messenger is the subset of *tgbotapi.BotAPI the handlers use.
type messenger interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// session 保存每个聊天的菜单状态
type session struct {
	cinema          config.CinemaConfig
	groups          []scraper.MovieGroup
	versions        []scraper.Listing
	selected        *scraper.Listing
	days            []scraper.DayShowtimes
	posterMessageID int
}

// Bot dispatches Telegram updates to the menu handlers.
type Bot struct {
	api         *tgbotapi.BotAPI
	client      messenger
	source      ListingSource
	lookup      MovieLookup
	pollTimeout int
	retry       *retry.Config

	mu       sync.Mutex
	sessions map[int64]*session
	wg       sync.WaitGroup
}

// New connects to the Telegram Bot API.
func New(cfg config.TelegramConfig, source ListingSource, lookup MovieLookup) (*Bot, error) {
	if cfg.Token == "" {
		return nil, errors.New("telegram token is empty (set TELEGRAM_BOT_TOKEN)")
	}

	api, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Telegram: %w", err)
	}
	api.Debug = cfg.Debug
	logger.Info("Authorized on account %s", api.Self.UserName)

	b := newBot(api, source, lookup)
	b.api = api
	if cfg.PollTimeout > 0 {
		b.pollTimeout = cfg.PollTimeout
	}
	return b, nil
}

func newBot(client messenger, source ListingSource, lookup MovieLookup) *Bot {
	return &Bot{
		client:      client,
		source:      source,
		lookup:      lookup,
		pollTimeout: 60,
		retry:       telegramRetryConfig(),
		sessions:    make(map[int64]*session),
	}
}

// Run long-polls for updates until ctx is cancelled. Each update is handled in its
// own goroutine since scraping a cinema can take several seconds.
func (b *Bot) Run(ctx context.Context) error {
	if b.api == nil {
		return errors.New("bot is not connected")
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = b.pollTimeout
	updates := b.api.GetUpdatesChan(u)

	logger.Info("Bot running, waiting for updates")
	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			b.wg.Wait()
			logger.Info("Bot stopped")
			return nil
		case update, ok := <-updates:
			if !ok {
				b.wg.Wait()
				return nil
			}
			b.wg.Add(1)
			go func() {
				defer b.wg.Done()
				b.handleUpdate(ctx, update)
			}()
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Panic while handling update %d: %v", update.UpdateID, r)
		}
	}()

	switch {
	case update.Message != nil && update.Message.IsCommand():
		b.handleCommand(ctx, update.Message)
	case update.CallbackQuery != nil:
		b.handleCallback(ctx, update.CallbackQuery)
	}
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	switch msg.Command() {
	case "start":
		logger.Debug("Chat %d: /start", msg.Chat.ID)
		b.send(ctx, msg.Chat.ID, CinemasMenu(b.source.Cinemas()), false)
	default:
		logger.Debug("Chat %d: ignoring command /%s", msg.Chat.ID, msg.Command())
	}
}

func (b *Bot) handleCallback(ctx context.Context, q *tgbotapi.CallbackQuery) {
	if _, err := b.request(ctx, tgbotapi.NewCallback(q.ID, "")); err != nil {
		logger.Debug("Failed to answer callback %s: %v", q.ID, err)
	}
	if q.Message == nil || q.Message.Chat == nil {
		return
	}

	chatID := q.Message.Chat.ID
	messageID := q.Message.MessageID
	action, arg := parseCallback(q.Data)
	logger.Debug("Chat %d: callback %q", chatID, q.Data)

	var menu Menu
	switch action {
	case actionNoop:
		return
	case actionCinema:
		menu = b.selectCinema(ctx, chatID, messageID, arg)
	case actionMovie:
		menu = b.selectMovie(chatID, arg)
	case actionVersion:
		menu = b.selectVersion(chatID, arg)
	case actionShowtimes:
		menu = b.showDays(chatID)
	case actionDay:
		menu = b.selectDay(chatID, arg)
	case actionInfo:
		menu = b.showInfo(ctx, chatID)
	case actionBack:
		menu = b.goBack(chatID, arg)
	default:
		logger.Warn("Chat %d: unknown callback %q", chatID, q.Data)
		menu = CinemasMenu(b.source.Cinemas())
	}

	b.edit(ctx, chatID, messageID, menu)
}

// session returns the chat's session, creating it on first use. Callers hold b.mu.
func (b *Bot) session(chatID int64) *session {
	s, ok := b.sessions[chatID]
	if !ok {
		s = &session{}
		b.sessions[chatID] = s
	}
	return s
}

func (b *Bot) selectCinema(ctx context.Context, chatID int64, messageID int, id string) Menu {
	cinema, ok := b.source.Cinema(id)
	if !ok {
		logger.Warn("Chat %d: unknown cinema %q", chatID, id)
		return CinemasMenu(b.source.Cinemas())
	}

	b.edit(ctx, chatID, messageID, LoadingMenu(cinema))

	listings, err := b.source.Listings(ctx, cinema.ID)
	if err != nil {
		logger.Error("Failed to get listings for %s: %v", cinema.ID, err)
		return ScrapeErrorMenu(cinema)
	}
	groups := scraper.GroupByBaseTitle(listings)
	logger.Info("Chat %d: %s has %d films (%d listings)", chatID, cinema.ID, len(groups), len(listings))

	b.mu.Lock()
	defer b.mu.Unlock()
	s := b.session(chatID)
	s.cinema = cinema
	s.groups = groups
	s.versions = nil
	s.selected = nil
	s.days = nil
	return MoviesMenu(cinema, groups)
}

func (b *Bot) selectMovie(chatID int64, arg string) Menu {
	b.mu.Lock()
	defer b.mu.Unlock()

	s := b.session(chatID)
	i, ok := parseIndex(arg, len(s.groups))
	if !ok {
		return ExpiredMenu()
	}

	group := s.groups[i]
	s.versions = group.Versions
	if len(group.Versions) == 1 {
		s.selected = &group.Versions[0]
		return OptionsMenu(*s.selected, backMovies)
	}
	s.selected = nil
	return VersionsMenu(group)
}

func (b *Bot) selectVersion(chatID int64, arg string) Menu {
	b.mu.Lock()
	defer b.mu.Unlock()

	s := b.session(chatID)
	i, ok := parseIndex(arg, len(s.versions))
	if !ok {
		return ExpiredMenu()
	}
	s.selected = &s.versions[i]
	return OptionsMenu(*s.selected, backVersions)
}

func (b *Bot) showDays(chatID int64) Menu {
	b.mu.Lock()
	defer b.mu.Unlock()

	s := b.session(chatID)
	if s.selected == nil {
		return ExpiredMenu()
	}
	s.days = s.selected.Showings
	return DaysMenu(*s.selected)
}

func (b *Bot) selectDay(chatID int64, arg string) Menu {
	b.mu.Lock()
	defer b.mu.Unlock()

	s := b.session(chatID)
	i, ok := parseIndex(arg, len(s.days))
	if !ok || s.selected == nil {
		return ExpiredMenu()
	}
	return TimesMenu(*s.selected, s.days[i])
}

// showInfo looks the selected film up and, when it has a poster, replaces the
// chat's previous poster photo with the new one.
func (b *Bot) showInfo(ctx context.Context, chatID int64) Menu {
	b.mu.Lock()
	s := b.session(chatID)
	if s.selected == nil {
		b.mu.Unlock()
		return ExpiredMenu()
	}
	listing := *s.selected
	previousPoster := s.posterMessageID
	b.mu.Unlock()

	var movie *tmdb.Movie
	if b.lookup != nil {
		if m, ok := b.lookup.Search(ctx, listing.Title); ok {
			movie = m
		}
	}
	if movie == nil {
		return InfoMenu(listing, nil)
	}

	if posterURL := b.lookup.PosterURL(movie.PosterPath); posterURL != "" {
		if previousPoster != 0 {
			if _, err := b.request(ctx, tgbotapi.NewDeleteMessage(chatID, previousPoster)); err != nil {
				logger.Debug("Chat %d: could not delete poster %d: %v", chatID, previousPoster, err)
			}
		}

		photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileURL(posterURL))
		photo.Caption = PosterCaption(listing)
		photo.ParseMode = tgbotapi.ModeMarkdown
		sent, err := b.sendChattable(ctx, photo)
		if err != nil {
			logger.Warn("Chat %d: failed to send poster: %v", chatID, err)
		} else {
			b.mu.Lock()
			b.session(chatID).posterMessageID = sent.MessageID
			b.mu.Unlock()
		}
	}

	return InfoMenu(listing, movie)
}

func (b *Bot) goBack(chatID int64, target string) Menu {
	if target == "cinemas" {
		return CinemasMenu(b.source.Cinemas())
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	s := b.session(chatID)

	switch target {
	case "movies":
		if s.groups == nil {
			return ExpiredMenu()
		}
		return MoviesMenu(s.cinema, s.groups)
	case "versions":
		if len(s.versions) == 0 {
			return ExpiredMenu()
		}
		return VersionsMenu(scraper.MovieGroup{BaseTitle: s.versions[0].BaseTitle(), Versions: s.versions})
	case "options":
		if s.selected == nil {
			return ExpiredMenu()
		}
		back := backMovies
		if len(s.versions) > 1 {
			back = backVersions
		}
		return OptionsMenu(*s.selected, back)
	case "days":
		if s.selected == nil {
			return ExpiredMenu()
		}
		s.days = s.selected.Showings
		return DaysMenu(*s.selected)
	default:
		return CinemasMenu(b.source.Cinemas())
	}
}

func (b *Bot) send(ctx context.Context, chatID int64, menu Menu, markdown bool) {
	msg := tgbotapi.NewMessage(chatID, menu.Text)
	msg.ReplyMarkup = menu.Markup
	if markdown {
		msg.ParseMode = tgbotapi.ModeMarkdown
	}
	if _, err := b.sendChattable(ctx, msg); err != nil {
		logger.Error("Chat %d: failed to send message: %v", chatID, err)
	}
}

func (b *Bot) edit(ctx context.Context, chatID int64, messageID int, menu Menu) {
	edit := tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID, menu.Text, menu.Markup)
	edit.ParseMode = tgbotapi.ModeMarkdown
	if _, err := b.sendChattable(ctx, edit); err != nil {
		logger.Warn("Chat %d: failed to edit message %d: %v", chatID, messageID, err)
	}
}

// telegramRetryConfig retries transient network errors and waits out rate limits
// for as long as Telegram asks.
func telegramRetryConfig() *retry.Config {
	cfg := retry.DefaultConfig()
	cfg.DelayFor = func(err error) (time.Duration, bool) {
		var apiErr *tgbotapi.Error
		if errors.As(err, &apiErr) && apiErr.Code == http.StatusTooManyRequests && apiErr.RetryAfter > 0 {
			return time.Duration(apiErr.RetryAfter) * time.Second, true
		}
		return 0, false
	}
	cfg.OnRetry = func(attempt int, err error, delay time.Duration) {
		logger.Debug("Telegram request failed (attempt %d), retrying in %v: %v", attempt, delay, err)
	}
	return cfg
}

func (b *Bot) sendChattable(ctx context.Context, c tgbotapi.Chattable) (tgbotapi.Message, error) {
	var msg tgbotapi.Message
	err := retry.RetryWithContext(ctx, func(ctx context.Context) error {
		var err error
		msg, err = b.client.Send(c)
		return err
	}, b.retryFor(c))
	return msg, err
}

// retryFor only retries a new message or photo on a rate limit: after a network
// error it may already have been delivered.
func (b *Bot) retryFor(c tgbotapi.Chattable) *retry.Config {
	switch c.(type) {
	case tgbotapi.MessageConfig, tgbotapi.PhotoConfig:
		once := *b.retry
		once.RetryIf = func(error) bool { return false }
		return &once
	}
	return b.retry
}

func (b *Bot) request(ctx context.Context, c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	var resp *tgbotapi.APIResponse
	err := retry.RetryWithContext(ctx, func(ctx context.Context) error {
		var err error
		resp, err = b.client.Request(c)
		return err
	}, b.retry)
	return resp, err
}
