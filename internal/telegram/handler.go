package telegram

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/PoluyanbIch/stemnavigator/internal/service"
	"github.com/PoluyanbIch/stemnavigator/internal/session"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// maxConcurrentUpdates ограничивает число пользователей, чьи обновления
// обрабатываются одновременно.
const maxConcurrentUpdates = 32

// Sender - часть *tgbotapi.BotAPI, которой пользуется бот.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

type Deps struct {
	Engine      *service.Engine
	Sessions    session.Store
	Professions service.ProfessionSource
	Results     service.ResultStore
	Logger      *zap.Logger
	// ShuffleOptions перемешивает варианты ответа в каждом вопросе.
	ShuffleOptions bool
}

type Bot struct {
	api         Sender
	engine      *service.Engine
	sessions    session.Store
	professions service.ProfessionSource
	results     service.ResultStore
	logger      *zap.Logger
	shuffle     bool
	queues      *userQueues

	now          func() time.Time
	newAttemptID func() string
}

func NewBot(api Sender, deps Deps) *Bot {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	results := deps.Results
	if results == nil {
		results = service.NewMemoryResultStore()
	}
	return &Bot{
		api:          api,
		engine:       deps.Engine,
		sessions:     deps.Sessions,
		professions:  deps.Professions,
		results:      results,
		logger:       logger,
		shuffle:      deps.ShuffleOptions,
		queues:       newUserQueues(),
		now:          time.Now,
		newAttemptID: func() string { return uuid.NewString() },
	}
}

// Start обрабатывает обновления, пока не отменён ctx или не закрыт канал.
// Разные пользователи обслуживаются параллельно, обновления одного
// пользователя - строго по порядку. Перед выходом Start дожидается
// запущенных обработчиков.
func (b *Bot) Start(ctx context.Context, updates tgbotapi.UpdatesChannel) {
	var g errgroup.Group
	g.SetLimit(maxConcurrentUpdates)
	defer g.Wait()

	for {
		select {
		case <-ctx.Done():
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			userID := updateUserID(update)
			if !b.queues.push(userID, update) {
				continue
			}
			g.Go(func() error {
				b.drain(ctx, userID)
				return nil
			})
		}
	}
}

// drain обрабатывает очередь пользователя, пока она не опустеет.
func (b *Bot) drain(ctx context.Context, userID int64) {
	for {
		update, ok := b.queues.next(userID)
		if !ok {
			return
		}
		b.handleUpdate(ctx, update)
	}
}

func updateUserID(update tgbotapi.Update) int64 {
	switch {
	case update.CallbackQuery != nil && update.CallbackQuery.From != nil:
		return update.CallbackQuery.From.ID
	case update.Message != nil && update.Message.From != nil:
		return update.Message.From.ID
	case update.Message != nil && update.Message.Chat != nil:
		return update.Message.Chat.ID
	}
	return 0
}

// userQueues хранит необработанные обновления по пользователям. Наличие
// ключа означает, что очередь пользователя уже кто-то разбирает.
type userQueues struct {
	mu     sync.Mutex
	queues map[int64][]tgbotapi.Update
}

func newUserQueues() *userQueues {
	return &userQueues{queues: make(map[int64][]tgbotapi.Update)}
}

// push ставит обновление в очередь и сообщает, нужно ли запустить её разбор.
func (q *userQueues) push(userID int64, update tgbotapi.Update) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	pending, running := q.queues[userID]
	q.queues[userID] = append(pending, update)
	return !running
}

// next выдаёт следующее обновление; пустая очередь удаляется.
func (q *userQueues) next(userID int64) (tgbotapi.Update, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	pending := q.queues[userID]
	if len(pending) == 0 {
		delete(q.queues, userID)
		return tgbotapi.Update{}, false
	}
	q.queues[userID] = pending[1:]
	return pending[0], true
}

// screen - готовое сообщение: HTML-текст и inline-клавиатура.
type screen struct {
	text     string
	keyboard tgbotapi.InlineKeyboardMarkup
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		b.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil && update.Message.IsCommand():
		b.handleCommand(ctx, update.Message)
	}
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	userID := chatID
	if msg.From != nil {
		userID = msg.From.ID
	}

	if msg.Command() == "reset" {
		if err := b.sessions.Delete(ctx, userID); err != nil {
			b.logger.Error("failed to reset session", zap.Int64("user_id", userID), zap.Error(err))
			b.sendText(chatID, alertServiceError)
			return
		}
		b.send(chatID, screen{text: textReset, keyboard: mainMenuKeyboard()})
		return
	}

	s, err := b.loadSession(ctx, userID)
	if err != nil {
		b.logger.Error("failed to load session", zap.Int64("user_id", userID), zap.Error(err))
		b.sendText(chatID, alertServiceError)
		return
	}

	var (
		sc    screen
		alert string
	)
	switch msg.Command() {
	case "start":
		sc = b.mainMenu()
	case "test":
		sc = b.openNavigator(ctx, s)
	case "professions":
		sc, alert = b.openCatalog(ctx, s)
	default:
		b.sendText(chatID, textUnknownCommand)
		return
	}
	if alert != "" {
		b.sendText(chatID, alert)
		return
	}

	b.send(chatID, sc)
	b.saveSession(ctx, s)
}

func (b *Bot) handleCallback(ctx context.Context, callback *tgbotapi.CallbackQuery) {
	if callback.Message == nil || callback.From == nil {
		b.answerCallback(callback.ID, "")
		return
	}
	chatID := callback.Message.Chat.ID
	messageID := callback.Message.MessageID
	user := callback.From

	s, err := b.loadSession(ctx, user.ID)
	if err != nil {
		b.logger.Error("failed to load session", zap.Int64("user_id", user.ID), zap.Error(err))
		b.answerCallback(callback.ID, alertServiceError)
		return
	}

	sc, alert, err := b.route(ctx, s, user, callback.Data)
	switch {
	case errors.Is(err, service.ErrStaleReference),
		errors.Is(err, service.ErrNotTakingTest),
		errors.Is(err, service.ErrInvalidTransition),
		errors.Is(err, service.ErrNoResults):
		b.logger.Info("stale callback",
			zap.Int64("chat_id", chatID),
			zap.String("data", callback.Data),
			zap.String("state", string(s.State)),
			zap.Error(err))
		alert = alertStale
		sc = b.fallbackScreen(s)
	case err != nil:
		b.logger.Error("callback failed", zap.Int64("chat_id", chatID), zap.String("data", callback.Data), zap.Error(err))
		b.answerCallback(callback.ID, alertServiceError)
		return
	}

	b.answerCallback(callback.ID, alert)
	if sc != nil {
		b.edit(chatID, messageID, *sc)
	}
	b.saveSession(ctx, s)
}

// route применяет callback к сессии и возвращает новый экран либо nil и
// всплывающее сообщение, если экран остаётся прежним.
func (b *Bot) route(ctx context.Context, s *service.Session, user *tgbotapi.User, data string) (*screen, string, error) {
	switch {
	case data == cbMenu:
		sc := b.mainMenu()
		return &sc, "", nil
	case data == cbAbout:
		return &screen{text: textAbout, keyboard: aboutKeyboard()}, "", nil
	case data == cbNavigator:
		sc := b.openNavigator(ctx, s)
		return &sc, "", nil
	case data == cbCatalog:
		sc, alert := b.openCatalog(ctx, s)
		if alert != "" {
			return nil, alert, nil
		}
		return &sc, "", nil
	case data == cbTestStart:
		b.engine.Start(s)
		s.AttemptID = b.newAttemptID()
		q, _ := b.engine.NextQuestion(0)
		sc := b.questionScreen(q)
		return &sc, "", nil
	case strings.HasPrefix(data, cbAnswerPrefix):
		return b.answer(ctx, s, user, strings.TrimPrefix(data, cbAnswerPrefix))
	case data == cbResults:
		results, err := b.engine.OpenResults(s)
		if err != nil {
			return nil, "", err
		}
		sc := b.resultsScreen(results)
		return &sc, "", nil
	case strings.HasPrefix(data, cbScalePrefix):
		return b.openScale(ctx, s, service.ScaleID(strings.TrimPrefix(data, cbScalePrefix)))
	case strings.HasPrefix(data, cbDirectionPrefix):
		generation, handle, err := parseHandle(data, cbDirectionPrefix)
		if err != nil {
			return nil, "", err
		}
		direction, profs, err := b.engine.OpenDirection(s, generation, handle)
		if err != nil {
			return nil, "", err
		}
		sc := professionsScreen(direction, profs, s.Generation)
		return &sc, "", nil
	case strings.HasPrefix(data, cbProfessionPrefix):
		generation, handle, err := parseHandle(data, cbProfessionPrefix)
		if err != nil {
			return nil, "", err
		}
		p, err := b.engine.OpenProfession(s, generation, handle)
		if err != nil {
			return nil, "", err
		}
		return &screen{text: service.RenderSummary(p), keyboard: cardKeyboard(generation, handle, false)}, "", nil
	case strings.HasPrefix(data, cbFullPrefix):
		generation, handle, err := parseHandle(data, cbFullPrefix)
		if err != nil {
			return nil, "", err
		}
		p, err := b.engine.ExpandProfession(s, generation, handle)
		if err != nil {
			return nil, "", err
		}
		return &screen{text: service.RenderDetail(p), keyboard: cardKeyboard(generation, handle, true)}, "", nil
	case data == cbBack:
		if _, err := b.engine.Back(s); err != nil {
			return nil, "", err
		}
		sc := b.current(s)
		return &sc, "", nil
	default:
		return nil, textUnknownCommand, nil
	}
}

func (b *Bot) answer(ctx context.Context, s *service.Session, user *tgbotapi.User, payload string) (*screen, string, error) {
	index, code, ok := strings.Cut(payload, "_")
	if !ok {
		return nil, "", service.ErrStaleReference
	}
	questionIndex, err := strconv.Atoi(index)
	if err != nil {
		return nil, "", service.ErrStaleReference
	}

	next, done, err := b.engine.Answer(s, questionIndex, code)
	if err != nil {
		return nil, "", err
	}
	if !done {
		sc := b.questionScreen(next)
		return &sc, "", nil
	}

	b.logger.Info("test completed",
		zap.Int64("user_id", user.ID),
		zap.String("attempt_id", s.AttemptID),
		zap.Any("results", s.Results))
	b.saveResult(ctx, s, user)

	sc := b.resultsScreen(s.Results)
	return &sc, "", nil
}

func (b *Bot) saveResult(ctx context.Context, s *service.Session, user *tgbotapi.User) {
	result := service.TestResult{
		UserID:      user.ID,
		Username:    user.UserName,
		FirstName:   user.FirstName,
		AttemptID:   s.AttemptID,
		Scores:      s.Results,
		CompletedAt: b.now(),
	}
	if err := b.results.Save(ctx, result); err != nil {
		b.logger.Error("failed to save test result",
			zap.Int64("user_id", user.ID),
			zap.String("attempt_id", s.AttemptID),
			zap.Error(err))
	}
}

// openNavigator продолжает незаконченный тест, показывает прошлые результаты
// или знакомит нового пользователя с тестом.
func (b *Bot) openNavigator(ctx context.Context, s *service.Session) screen {
	if q, ok := b.engine.Resume(s); ok {
		return b.questionScreen(q)
	}

	if _, err := service.RestoreResults(ctx, b.results, s); err != nil {
		b.logger.Warn("failed to restore results", zap.Int64("user_id", s.UserID), zap.Error(err))
	}
	if s.HasResults() {
		if results, err := b.engine.OpenResults(s); err == nil {
			return b.resultsScreen(results)
		}
	}
	return screen{text: textAboutTest, keyboard: aboutTestKeyboard()}
}

func (b *Bot) openCatalog(ctx context.Context, s *service.Session) (screen, string) {
	all, err := b.professions.All(ctx)
	if err != nil {
		b.logger.Error("failed to load professions", zap.Error(err))
		return screen{}, alertUnavailable
	}
	directions := b.engine.OpenCatalog(s, all)
	if len(directions) == 0 {
		return screen{}, alertUnavailable
	}
	return directionsScreen(textCatalogHeader, directions, s.Generation, btnMainMenu), ""
}

func (b *Bot) openScale(ctx context.Context, s *service.Session, scaleID service.ScaleID) (*screen, string, error) {
	scale, ok := b.engine.Scale(scaleID)
	if !ok {
		return nil, "", service.ErrStaleReference
	}
	profs, err := b.professions.ByScale(ctx, scaleID)
	if err != nil {
		b.logger.Error("failed to load professions", zap.String("scale", string(scaleID)), zap.Error(err))
		return nil, alertUnavailable, nil
	}
	directions, err := b.engine.OpenScale(s, scaleID, profs)
	if err != nil {
		return nil, "", err
	}
	if len(directions) == 0 {
		return nil, alertComingSoon, nil
	}
	sc := directionsScreen(fmt.Sprintf(textScaleHeader, html.EscapeString(scale.Title)), directions, s.Generation, btnBackResults)
	return &sc, "", nil
}

// current рисует экран состояния, в которое привёл переход назад.
func (b *Bot) current(s *service.Session) screen {
	switch s.State {
	case service.StateViewingResults:
		return b.resultsScreen(s.Results)
	case service.StateViewingDirections:
		if s.Catalog {
			return directionsScreen(textCatalogHeader, s.Directions, s.Generation, btnMainMenu)
		}
		title := string(s.Scale)
		if scale, ok := b.engine.Scale(s.Scale); ok {
			title = scale.Title
		}
		return directionsScreen(fmt.Sprintf(textScaleHeader, html.EscapeString(title)), s.Directions, s.Generation, btnBackResults)
	case service.StateViewingProfessions:
		direction, _ := s.CurrentDirection()
		return professionsScreen(direction, s.Professions, s.Generation)
	default:
		return b.mainMenu()
	}
}

// fallbackScreen возвращает нажавшего устаревшую кнопку к текущему вопросу,
// к результатам или в главное меню.
func (b *Bot) fallbackScreen(s *service.Session) *screen {
	if s.State == service.StateTakingTest {
		if q, ok := b.engine.NextQuestion(s.QuestionIndex()); ok {
			sc := b.questionScreen(q)
			return &sc
		}
	}
	if results, err := b.engine.OpenResults(s); err == nil {
		sc := b.resultsScreen(results)
		return &sc
	}
	sc := b.mainMenu()
	return &sc
}

func (b *Bot) mainMenu() screen {
	return screen{text: textMainMenu, keyboard: mainMenuKeyboard()}
}

func (b *Bot) questionScreen(q service.Question) screen {
	if b.shuffle {
		q = service.ShuffleOptions(q)
	}
	text := fmt.Sprintf(textQuestion, q.Index+1, b.engine.TotalQuestions(), html.EscapeString(q.Text))
	return screen{text: text, keyboard: questionKeyboard(q)}
}

func (b *Bot) resultsScreen(results []service.ScaleScore) screen {
	if len(results) == 0 {
		return screen{text: textResultsEmpty, keyboard: resultsKeyboard(nil)}
	}

	var sb strings.Builder
	sb.WriteString(textResultsTitle)
	scales := make([]service.Scale, 0, len(results))
	for i, r := range results {
		scale, ok := b.engine.Scale(r.Scale)
		if !ok {
			continue
		}
		scales = append(scales, scale)
		place := ""
		if i < len(placeEmojis) {
			place = placeEmojis[i] + " "
		}
		fmt.Fprintf(&sb, "%s<b>%s</b>\n%s\n\n", place, html.EscapeString(scale.Title), html.EscapeString(scale.Description))
	}
	sb.WriteString(textResultsFooter)
	return screen{text: sb.String(), keyboard: resultsKeyboard(scales)}
}

func directionsScreen(header string, directions []string, generation int, backText string) screen {
	return screen{text: header, keyboard: listKeyboard(directions, cbDirectionPrefix, generation, backText)}
}

func professionsScreen(direction string, profs []service.Profession, generation int) screen {
	names := make([]string, len(profs))
	for i, p := range profs {
		names[i] = p.Name
	}
	return screen{
		text:     fmt.Sprintf(textDirectionTitle, html.EscapeString(direction)),
		keyboard: listKeyboard(names, cbProfessionPrefix, generation, btnBackDirs),
	}
}

// parseHandle разбирает "<префикс><поколение>_<позиция>".
func parseHandle(data, prefix string) (int, int, error) {
	gen, pos, ok := strings.Cut(strings.TrimPrefix(data, prefix), "_")
	if !ok {
		return 0, 0, service.ErrStaleReference
	}
	generation, err := strconv.Atoi(gen)
	if err != nil {
		return 0, 0, service.ErrStaleReference
	}
	handle, err := strconv.Atoi(pos)
	if err != nil {
		return 0, 0, service.ErrStaleReference
	}
	return generation, handle, nil
}

// loadSession начинает с чистой сессии, если сохранённую не удалось прочитать.
func (b *Bot) loadSession(ctx context.Context, userID int64) (*service.Session, error) {
	s, err := b.sessions.Load(ctx, userID)
	if errors.Is(err, session.ErrCorruptSession) {
		b.logger.Warn("discarding corrupt session", zap.Int64("user_id", userID), zap.Error(err))
		return service.NewSession(userID), nil
	}
	return s, err
}

func (b *Bot) saveSession(ctx context.Context, s *service.Session) {
	if err := b.sessions.Save(ctx, s); err != nil {
		b.logger.Error("failed to save session", zap.Int64("user_id", s.UserID), zap.Error(err))
	}
}

func (b *Bot) send(chatID int64, sc screen) {
	msg := tgbotapi.NewMessage(chatID, sc.text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = sc.keyboard
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("failed to send message", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

func (b *Bot) sendText(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("failed to send message", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

func (b *Bot) edit(chatID int64, messageID int, sc screen) {
	msg := tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID, sc.text, sc.keyboard)
	msg.ParseMode = tgbotapi.ModeHTML
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("failed to edit message", zap.Int64("chat_id", chatID), zap.Int("message_id", messageID), zap.Error(err))
	}
}

func (b *Bot) answerCallback(id, alert string) {
	cfg := tgbotapi.NewCallback(id, "")
	if alert != "" {
		cfg = tgbotapi.NewCallbackWithAlert(id, alert)
	}
	if _, err := b.api.Request(cfg); err != nil {
		b.logger.Warn("failed to answer callback", zap.Error(err))
	}
}
