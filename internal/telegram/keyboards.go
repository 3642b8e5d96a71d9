package telegram

import (
	"fmt"

	"github.com/PoluyanbIch/stemnavigator/internal/service"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Callback-данные. dir_, prof_ и full_ несут "<поколение>_<позиция>": позицию в
// списке, показанном на экране кнопки, и поколение этого списка.
const (
	cbNavigator = "navigator"
	cbCatalog   = "catalog"
	cbAbout     = "about"
	cbMenu      = "menu"
	cbTestStart = "test_start"
	cbResults   = "results"
	cbBack      = "back"

	cbAnswerPrefix     = service.AnswerCallbackPrefix
	cbScalePrefix      = "scale_"
	cbDirectionPrefix  = "dir_"
	cbProfessionPrefix = "prof_"
	cbFullPrefix       = "full_"
)

func button(text, data string) []tgbotapi.InlineKeyboardButton {
	return tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData(text, data))
}

func mainMenuKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		button(btnNavigator, cbNavigator),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(btnProfessions, cbCatalog),
			tgbotapi.NewInlineKeyboardButtonData(btnAbout, cbAbout),
		),
	)
}

func aboutTestKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		button(btnStartTest, cbTestStart),
		button(btnMainMenu, cbMenu),
	)
}

func aboutKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonURL("📂 GitHub репозиторий", "https://github.com/PoluyanbIch/stemnavigator"),
		),
		button(btnMainMenu, cbMenu),
	)
}

func questionKeyboard(q service.Question) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(q.Options)+1)
	for _, o := range q.Options {
		rows = append(rows, button(o.Text, service.AnswerCallbackData(q.Index, o.Code)))
	}
	rows = append(rows, button(btnMainMenu, cbMenu))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func resultsKeyboard(scales []service.Scale) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, s := range scales {
		rows = append(rows, button(fmt.Sprintf(btnViewScale, s.Title), cbScalePrefix+string(s.ID)))
	}
	rows = append(rows,
		button(btnRestartTest, cbTestStart),
		button(btnMainMenu, cbMenu),
	)
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func handleData(prefix string, generation, handle int) string {
	return fmt.Sprintf("%s%d_%d", prefix, generation, handle)
}

func listKeyboard(items []string, prefix string, generation int, backText string) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(items)+1)
	for i, item := range items {
		rows = append(rows, button(item, handleData(prefix, generation, i)))
	}
	rows = append(rows, button(backText, cbBack))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func cardKeyboard(generation, handle int, expanded bool) tgbotapi.InlineKeyboardMarkup {
	toggle := button(btnMore, handleData(cbFullPrefix, generation, handle))
	if expanded {
		toggle = button(btnLess, handleData(cbProfessionPrefix, generation, handle))
	}
	return tgbotapi.NewInlineKeyboardMarkup(toggle, button(btnBackProfs, cbBack))
}
