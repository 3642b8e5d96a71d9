package telegram

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/PoluyanbIch/stemnavigator/internal/service"
	"github.com/PoluyanbIch/stemnavigator/internal/session"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testBank = `
? Что тебе ближе?
1a | art  | Рисовать афиши
1b | tech | Чинить велосипеды

? А из этого?
2a | art   | Петь в хоре
2b | human | Помогать больным
`

type fakeSender struct {
	mu       sync.Mutex
	sent     []tgbotapi.Chattable
	requests []tgbotapi.Chattable
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, c)
	return tgbotapi.Message{}, nil
}

func (f *fakeSender) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

// messagesTo returns the texts of new messages sent to chatID, oldest first.
func (f *fakeSender) messagesTo(chatID int64) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, c := range f.sent {
		if msg, ok := c.(tgbotapi.MessageConfig); ok && msg.ChatID == chatID {
			out = append(out, msg.Text)
		}
	}
	return out
}

func (f *fakeSender) lastEdit(t *testing.T) tgbotapi.EditMessageTextConfig {
	t.Helper()
	require.NotEmpty(t, f.sent)
	edit, ok := f.sent[len(f.sent)-1].(tgbotapi.EditMessageTextConfig)
	require.True(t, ok, "last sent item is %T", f.sent[len(f.sent)-1])
	return edit
}

func (f *fakeSender) lastMessage(t *testing.T) tgbotapi.MessageConfig {
	t.Helper()
	require.NotEmpty(t, f.sent)
	msg, ok := f.sent[len(f.sent)-1].(tgbotapi.MessageConfig)
	require.True(t, ok, "last sent item is %T", f.sent[len(f.sent)-1])
	return msg
}

func (f *fakeSender) lastCallback(t *testing.T) tgbotapi.CallbackConfig {
	t.Helper()
	require.NotEmpty(t, f.requests)
	cb, ok := f.requests[len(f.requests)-1].(tgbotapi.CallbackConfig)
	require.True(t, ok)
	return cb
}

func callbackData(kb tgbotapi.InlineKeyboardMarkup) []string {
	var out []string
	for _, row := range kb.InlineKeyboard {
		for _, btn := range row {
			if btn.CallbackData != nil {
				out = append(out, *btn.CallbackData)
			}
		}
	}
	return out
}

type testEnv struct {
	bot      *Bot
	api      *fakeSender
	sessions session.Store
	results  *service.MemoryResultStore
	now      time.Time
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	bank, err := service.ReadQuestionBank(strings.NewReader(testBank))
	require.NoError(t, err)
	engine, err := service.NewEngine(bank)
	require.NoError(t, err)

	env := &testEnv{
		api:      &fakeSender{},
		sessions: session.NewMemoryStore(),
		results:  service.NewMemoryResultStore(),
		now:      time.Date(2025, 9, 1, 9, 0, 0, 0, time.UTC),
	}
	env.bot = NewBot(env.api, Deps{
		Engine:   engine,
		Sessions: env.sessions,
		Professions: service.StaticProfessions{
			{Scale: service.ScaleArt, Direction: "Музыка", Name: "Композитор",
				Fields: map[service.Field]string{service.FieldAbout: "Пишет музыку", service.FieldSalary: "По-разному"}},
			{Scale: service.ScaleArt, Direction: "Дизайн", Name: "Дизайнер"},
			{Scale: service.ScaleHuman, Direction: "Медицина", Name: "Врач"},
		},
		Results: env.results,
		Logger:  zap.NewNop(),
	})
	env.bot.now = func() time.Time { return env.now }
	env.bot.newAttemptID = func() string { return "attempt-1" }
	return env
}

func (e *testEnv) callback(data string) {
	e.bot.handleUpdate(context.Background(), tgbotapi.Update{
		CallbackQuery: &tgbotapi.CallbackQuery{
			ID:   "cb-" + data,
			From: &tgbotapi.User{ID: 42, UserName: "ivan", FirstName: "Иван"},
			Message: &tgbotapi.Message{
				MessageID: 10,
				Chat:      &tgbotapi.Chat{ID: 42},
			},
			Data: data,
		},
	})
}

func commandUpdate(userID int64, cmd string) tgbotapi.Update {
	text := "/" + cmd
	return tgbotapi.Update{
		Message: &tgbotapi.Message{
			MessageID: 1,
			From:      &tgbotapi.User{ID: userID},
			Chat:      &tgbotapi.Chat{ID: userID},
			Text:      text,
			Entities:  []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(text)}},
		},
	}
}

func (e *testEnv) command(cmd string) {
	e.bot.handleUpdate(context.Background(), commandUpdate(42, cmd))
}

// handle builds list callback data for the list currently held by the session.
func (e *testEnv) handle(t *testing.T, prefix string, pos int) string {
	t.Helper()
	return fmt.Sprintf("%s%d_%d", prefix, e.session(t).Generation, pos)
}

func (e *testEnv) session(t *testing.T) *service.Session {
	t.Helper()
	s, err := e.sessions.Load(context.Background(), 42)
	require.NoError(t, err)
	return s
}

func (e *testEnv) finishTest(t *testing.T) {
	t.Helper()
	e.callback(cbTestStart)
	e.callback("ans_0_1a")
	e.callback("ans_1_2a")
	require.Equal(t, service.StateViewingResults, e.session(t).State)
}

func TestStartCommandShowsMainMenu(t *testing.T) {
	env := newTestEnv(t)
	env.command("start")

	msg := env.api.lastMessage(t)
	assert.Equal(t, int64(42), msg.ChatID)
	assert.Equal(t, textMainMenu, msg.Text)
	assert.Equal(t, tgbotapi.ModeHTML, msg.ParseMode)
	kb, ok := msg.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	require.True(t, ok)
	assert.Equal(t, []string{cbNavigator, cbCatalog, cbAbout}, callbackData(kb))
}

func TestUnknownCommand(t *testing.T) {
	env := newTestEnv(t)
	env.command("weather")
	assert.Equal(t, textUnknownCommand, env.api.lastMessage(t).Text)
}

func TestTakeTestAndBrowse(t *testing.T) {
	env := newTestEnv(t)

	env.callback(cbNavigator)
	edit := env.api.lastEdit(t)
	assert.Equal(t, textAboutTest, edit.Text)
	assert.Equal(t, 10, edit.MessageID)
	assert.Equal(t, []string{cbTestStart, cbMenu}, callbackData(*edit.ReplyMarkup))

	env.callback(cbTestStart)
	edit = env.api.lastEdit(t)
	assert.Contains(t, edit.Text, "Вопрос 1/2")
	assert.Equal(t, []string{"ans_0_1a", "ans_0_1b", cbMenu}, callbackData(*edit.ReplyMarkup))
	assert.Equal(t, "attempt-1", env.session(t).AttemptID)

	env.callback("ans_0_1a")
	edit = env.api.lastEdit(t)
	assert.Contains(t, edit.Text, "Вопрос 2/2")
	assert.Contains(t, edit.Text, "А из этого?")

	env.callback("ans_1_2a")
	edit = env.api.lastEdit(t)
	assert.Contains(t, edit.Text, "Человек-художественный образ")
	assert.Equal(t, []string{"scale_art", cbTestStart, cbMenu}, callbackData(*edit.ReplyMarkup))
	assert.Equal(t, "", env.api.lastCallback(t).Text)

	saved, err := env.results.Latest(context.Background(), 42)
	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.Equal(t, "attempt-1", saved.AttemptID)
	assert.Equal(t, "ivan", saved.Username)
	assert.Equal(t, []service.ScaleScore{{Scale: service.ScaleArt, Score: 2}}, saved.Scores)
	assert.Equal(t, env.now, saved.CompletedAt)

	env.callback("scale_art")
	edit = env.api.lastEdit(t)
	assert.Contains(t, edit.Text, "Выберите направление")
	assert.Equal(t, []string{"dir_1_0", "dir_1_1", cbBack}, callbackData(*edit.ReplyMarkup))
	assert.Equal(t, "Дизайн", edit.ReplyMarkup.InlineKeyboard[0][0].Text)

	env.callback("dir_1_1")
	edit = env.api.lastEdit(t)
	assert.Contains(t, edit.Text, "Музыка")
	assert.Equal(t, []string{"prof_2_0", cbBack}, callbackData(*edit.ReplyMarkup))

	env.callback("prof_2_0")
	edit = env.api.lastEdit(t)
	assert.Contains(t, edit.Text, "Пишет музыку")
	assert.NotContains(t, edit.Text, "По-разному")
	assert.Equal(t, []string{"full_2_0", cbBack}, callbackData(*edit.ReplyMarkup))

	env.callback("full_2_0")
	edit = env.api.lastEdit(t)
	assert.Contains(t, edit.Text, "По-разному")
	assert.Equal(t, []string{"prof_2_0", cbBack}, callbackData(*edit.ReplyMarkup))
	assert.Equal(t, service.StateViewingDetail, env.session(t).State)

	env.callback(cbBack)
	assert.Equal(t, service.StateViewingProfessions, env.session(t).State)
	assert.Contains(t, env.api.lastEdit(t).Text, "Музыка")

	env.callback(cbBack)
	assert.Equal(t, service.StateViewingDirections, env.session(t).State)
	assert.Equal(t, []string{"dir_2_0", "dir_2_1", cbBack}, callbackData(*env.api.lastEdit(t).ReplyMarkup))

	env.callback(cbBack)
	assert.Equal(t, service.StateViewingResults, env.session(t).State)
	assert.Contains(t, env.api.lastEdit(t).Text, "Человек-художественный образ")
}

func TestStaleCallbackReturnsToResults(t *testing.T) {
	env := newTestEnv(t)
	env.finishTest(t)

	env.callback("ans_0_1b")
	cb := env.api.lastCallback(t)
	assert.True(t, cb.ShowAlert)
	assert.Equal(t, alertStale, cb.Text)
	assert.Contains(t, env.api.lastEdit(t).Text, textResultsTitle)
	assert.Equal(t, []service.ScaleScore{{Scale: service.ScaleArt, Score: 2}}, env.session(t).Results)

	env.callback("scale_art")
	env.callback(env.handle(t, cbDirectionPrefix, 0))
	env.callback(env.handle(t, cbProfessionPrefix, 7))
	assert.Equal(t, alertStale, env.api.lastCallback(t).Text)
	assert.Equal(t, service.StateViewingResults, env.session(t).State)

	for _, data := range []string{"dir_x", "dir_1", "prof_1_y", "full__0"} {
		env.callback(data)
		assert.Equal(t, alertStale, env.api.lastCallback(t).Text, data)
	}
}

func TestRebuiltListRejectsOldButtons(t *testing.T) {
	env := newTestEnv(t)
	env.callback(cbTestStart)
	env.callback("ans_0_1a")
	env.callback("ans_1_2b")
	require.Equal(t, service.StateViewingResults, env.session(t).State)

	env.callback("scale_art")
	oldDesign := env.handle(t, cbDirectionPrefix, 0)
	assert.Equal(t, "Дизайн", env.api.lastEdit(t).ReplyMarkup.InlineKeyboard[0][0].Text)

	env.command("test")
	env.callback("scale_human")
	assert.Equal(t, "Медицина", env.api.lastEdit(t).ReplyMarkup.InlineKeyboard[0][0].Text)
	sent := len(env.api.sent)

	env.callback(oldDesign)
	cb := env.api.lastCallback(t)
	assert.True(t, cb.ShowAlert)
	assert.Equal(t, alertStale, cb.Text)
	require.Len(t, env.api.sent, sent+1)
	assert.Contains(t, env.api.lastEdit(t).Text, textResultsTitle)

	s := env.session(t)
	assert.Equal(t, service.StateViewingResults, s.State)
	assert.Nil(t, s.Professions)
}

func TestCardButtonsFromOldDirection(t *testing.T) {
	env := newTestEnv(t)
	env.finishTest(t)

	env.callback("scale_art")
	env.callback(env.handle(t, cbDirectionPrefix, 1))
	oldCard := env.handle(t, cbProfessionPrefix, 0)
	env.callback(cbBack)
	env.callback(env.handle(t, cbDirectionPrefix, 0))
	assert.Contains(t, env.api.lastEdit(t).Text, "Дизайн")

	env.callback(oldCard)
	assert.Equal(t, alertStale, env.api.lastCallback(t).Text)
	assert.NotContains(t, env.api.lastEdit(t).Text, "Композитор")
	assert.Equal(t, service.StateViewingResults, env.session(t).State)
}

func TestStaleAnswerDuringTest(t *testing.T) {
	env := newTestEnv(t)
	env.callback(cbTestStart)
	env.callback("ans_0_1a")

	env.callback("ans_0_1b")
	assert.Equal(t, alertStale, env.api.lastCallback(t).Text)
	assert.Contains(t, env.api.lastEdit(t).Text, "Вопрос 2/2")
	assert.Equal(t, []string{"1a"}, env.session(t).Answers)
}

func TestNavigatorResumesTest(t *testing.T) {
	env := newTestEnv(t)
	env.callback(cbTestStart)
	env.callback("ans_0_1b")
	env.callback(cbMenu)
	assert.Equal(t, textMainMenu, env.api.lastEdit(t).Text)

	env.callback(cbNavigator)
	assert.Contains(t, env.api.lastEdit(t).Text, "Вопрос 2/2")
}

func TestCatalogDuringTestKeepsProgress(t *testing.T) {
	env := newTestEnv(t)
	env.callback(cbTestStart)
	env.callback("ans_0_1a")

	env.callback(cbCatalog)
	assert.Equal(t, textCatalogHeader, env.api.lastEdit(t).Text)
	s := env.session(t)
	assert.Equal(t, []string{"1a"}, s.Answers)
	assert.Equal(t, "attempt-1", s.AttemptID)

	env.callback(cbNavigator)
	assert.Contains(t, env.api.lastEdit(t).Text, "Вопрос 2/2")
	assert.Equal(t, service.StateTakingTest, env.session(t).State)

	env.callback("ans_1_2a")
	assert.Contains(t, env.api.lastEdit(t).Text, textResultsTitle)
	saved, err := env.results.Latest(context.Background(), 42)
	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.Equal(t, "attempt-1", saved.AttemptID)
	assert.Equal(t, []service.ScaleScore{{Scale: service.ScaleArt, Score: 2}}, saved.Scores)
}

func TestReturningRespondentSeesResults(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.results.Save(context.Background(), service.TestResult{
		UserID:    42,
		AttemptID: "earlier",
		Scores:    []service.ScaleScore{{Scale: service.ScaleHuman, Score: 5}},
	}))

	env.command("test")
	msg := env.api.lastMessage(t)
	assert.Contains(t, msg.Text, "Человек-человек")

	s := env.session(t)
	assert.Equal(t, service.StateViewingResults, s.State)
	assert.Equal(t, "earlier", s.AttemptID)
}

func TestScaleWithoutProfessions(t *testing.T) {
	env := newTestEnv(t)
	env.finishTest(t)
	sent := len(env.api.sent)

	env.callback("scale_tech")
	cb := env.api.lastCallback(t)
	assert.True(t, cb.ShowAlert)
	assert.Equal(t, alertComingSoon, cb.Text)
	assert.Len(t, env.api.sent, sent, "screen stays as it was")
	assert.Equal(t, service.StateViewingResults, env.session(t).State)
}

func TestCatalog(t *testing.T) {
	env := newTestEnv(t)
	env.command("professions")

	msg := env.api.lastMessage(t)
	assert.Equal(t, textCatalogHeader, msg.Text)
	kb := msg.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	assert.Equal(t, []string{"dir_1_0", "dir_1_1", "dir_1_2", cbBack}, callbackData(kb))

	env.callback("dir_1_1")
	assert.Contains(t, env.api.lastEdit(t).Text, "Медицина")

	env.callback(cbBack)
	env.callback(cbBack)
	assert.Equal(t, textMainMenu, env.api.lastEdit(t).Text)
	assert.Equal(t, service.StateIdle, env.session(t).State)
}

func TestResetCommand(t *testing.T) {
	env := newTestEnv(t)
	env.finishTest(t)

	env.command("reset")
	assert.Equal(t, textReset, env.api.lastMessage(t).Text)
	s := env.session(t)
	assert.Equal(t, service.StateIdle, s.State)
	assert.Nil(t, s.Results)
}

func TestShuffledQuestionKeepsOptions(t *testing.T) {
	env := newTestEnv(t)
	env.bot.shuffle = true

	env.callback(cbTestStart)
	assert.ElementsMatch(t, []string{"ans_0_1a", "ans_0_1b", cbMenu}, callbackData(*env.api.lastEdit(t).ReplyMarkup))
}

func TestStartStopsOnClosedChannel(t *testing.T) {
	env := newTestEnv(t)
	updates := make(chan tgbotapi.Update, 1)
	updates <- tgbotapi.Update{Message: &tgbotapi.Message{
		Chat:     &tgbotapi.Chat{ID: 42},
		Text:     "/start",
		Entities: []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: 6}},
	}}
	close(updates)

	env.bot.Start(context.Background(), updates)
	assert.Equal(t, textMainMenu, env.api.lastMessage(t).Text)
}

// blockingProfessions holds All until release is closed.
type blockingProfessions struct {
	service.StaticProfessions
	entered chan struct{}
	release chan struct{}
}

func (p blockingProfessions) All(ctx context.Context) ([]service.Profession, error) {
	p.entered <- struct{}{}
	<-p.release
	return p.StaticProfessions.All(ctx)
}

func TestStartHandlesUsersConcurrently(t *testing.T) {
	env := newTestEnv(t)
	src := blockingProfessions{
		StaticProfessions: env.bot.professions.(service.StaticProfessions),
		entered:           make(chan struct{}, 1),
		release:           make(chan struct{}),
	}
	env.bot.professions = src

	updates := make(chan tgbotapi.Update, 3)
	updates <- commandUpdate(7, "professions")
	updates <- commandUpdate(7, "start")
	updates <- commandUpdate(8, "start")

	done := make(chan struct{})
	go func() {
		env.bot.Start(context.Background(), updates)
		close(done)
	}()

	<-src.entered
	require.Eventually(t, func() bool {
		return len(env.api.messagesTo(8)) == 1
	}, time.Second, 5*time.Millisecond)
	assert.Empty(t, env.api.messagesTo(7), "second update waits for the first one")

	close(src.release)
	close(updates)
	<-done

	assert.Equal(t, []string{textCatalogHeader, textMainMenu}, env.api.messagesTo(7))
	assert.Empty(t, env.bot.queues.queues)
}

func TestUserQueues(t *testing.T) {
	q := newUserQueues()
	first := commandUpdate(1, "start")
	second := commandUpdate(1, "test")

	assert.True(t, q.push(1, first))
	assert.False(t, q.push(1, second))
	assert.True(t, q.push(2, first))

	u, ok := q.next(1)
	require.True(t, ok)
	assert.Equal(t, "/start", u.Message.Text)
	u, ok = q.next(1)
	require.True(t, ok)
	assert.Equal(t, "/test", u.Message.Text)
	assert.False(t, q.push(1, first), "queue is still being drained")

	_, ok = q.next(1)
	require.True(t, ok)
	_, ok = q.next(1)
	assert.False(t, ok)
	assert.NotContains(t, q.queues, int64(1))
	assert.True(t, q.push(1, second))
}

func TestUpdateUserID(t *testing.T) {
	assert.Equal(t, int64(42), updateUserID(commandUpdate(42, "start")))
	assert.Equal(t, int64(5), updateUserID(tgbotapi.Update{
		CallbackQuery: &tgbotapi.CallbackQuery{From: &tgbotapi.User{ID: 5}},
	}))
	assert.Equal(t, int64(9), updateUserID(tgbotapi.Update{
		Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: 9}},
	}))
	assert.Equal(t, int64(0), updateUserID(tgbotapi.Update{}))
}

type corruptStore struct {
	session.Store
}

func (corruptStore) Load(context.Context, int64) (*service.Session, error) {
	return nil, session.ErrCorruptSession
}

func TestCorruptSessionStartsOver(t *testing.T) {
	env := newTestEnv(t)
	env.bot.sessions = corruptStore{Store: env.sessions}

	env.callback(cbTestStart)
	assert.Contains(t, env.api.lastEdit(t).Text, "Вопрос 1/2")
	assert.Equal(t, "", env.api.lastCallback(t).Text)
}
