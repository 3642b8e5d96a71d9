package service

import (
	"errors"
	"fmt"
)

var ErrInvalidBank = errors.New("invalid question bank")

// QuestionBank - неизменяемые данные, из которых строится движок.
type QuestionBank struct {
	Questions []Question
	Scales    []Scale
	Scoring   ScoringTable
}

// Validate проверяет банк: у каждого вопроса не меньше двух вариантов, коды
// уникальны и помещаются в callback-данные, все шкалы объявлены.
func (b QuestionBank) Validate() error {
	if len(b.Questions) == 0 {
		return fmt.Errorf("%w: no questions", ErrInvalidBank)
	}
	if len(b.Scales) == 0 {
		return fmt.Errorf("%w: no scales", ErrInvalidBank)
	}

	declared := make(map[ScaleID]struct{}, len(b.Scales))
	for _, s := range b.Scales {
		if _, dup := declared[s.ID]; dup {
			return fmt.Errorf("%w: scale %q declared twice", ErrInvalidBank, s.ID)
		}
		declared[s.ID] = struct{}{}
	}
	for id := range b.Scoring {
		if _, ok := declared[id]; !ok {
			return fmt.Errorf("%w: scoring references undeclared scale %q", ErrInvalidBank, id)
		}
	}

	codes := make(map[string]int)
	for i, q := range b.Questions {
		if q.Index != i {
			return fmt.Errorf("%w: question %d has index %d", ErrInvalidBank, i, q.Index)
		}
		if q.Text == "" {
			return fmt.Errorf("%w: question %d has no text", ErrInvalidBank, i+1)
		}
		if len(q.Options) < 2 {
			return fmt.Errorf("%w: question %d needs at least two options", ErrInvalidBank, i+1)
		}
		for _, o := range q.Options {
			if o.Code == "" {
				return fmt.Errorf("%w: question %d has an option without code", ErrInvalidBank, i+1)
			}
			if len(AnswerCallbackData(q.Index, o.Code)) > MaxCallbackData {
				return fmt.Errorf("%w: code %q is too long for a Telegram button", ErrInvalidBank, o.Code)
			}
			if prev, dup := codes[o.Code]; dup {
				return fmt.Errorf("%w: code %q used in questions %d and %d", ErrInvalidBank, o.Code, prev+1, i+1)
			}
			codes[o.Code] = i
		}
	}
	return nil
}

// OptionCounts считает, сколько вариантов ответа даёт балл каждой шкале.
func (b QuestionBank) OptionCounts() map[ScaleID]int {
	counts := make(map[ScaleID]int, len(b.Scales))
	for _, s := range b.Scales {
		counts[s.ID] = 0
	}
	for _, q := range b.Questions {
		for _, o := range q.Options {
			for _, s := range b.Scales {
				if b.Scoring.Awards(s.ID, o.Code) {
					counts[s.ID]++
				}
			}
		}
	}
	return counts
}

const defaultPrompt = "Представь, что после обучения ты сможешь выполнять любую работу. Что бы ты выбрал?"

type defaultOption struct {
	code  string
	scale ScaleID
	text  string
}

var defaultPairs = [][2]defaultOption{
	{{"1a", ScaleNature, "Ухаживать за животными"}, {"1b", ScaleTech, "Обслуживать машины и приборы"}},
	{{"2a", ScaleHuman, "Помогать больным людям"}, {"2b", ScaleSign, "Составлять таблицы, схемы, программы"}},
	{{"3a", ScaleArt, "Оформлять книги, плакаты, открытки"}, {"3b", ScaleNature, "Следить за ростом растений"}},
	{{"4a", ScaleTech, "Обрабатывать дерево, металл, пластик"}, {"4b", ScaleHuman, "Продавать и рекламировать товары"}},
	{{"5a", ScaleSign, "Обсуждать научно-популярные статьи"}, {"5b", ScaleArt, "Обсуждать книги, спектакли, концерты"}},
	{{"6a", ScaleNature, "Выращивать молодняк животных"}, {"6b", ScaleHuman, "Тренировать и обучать младших"}},
	{{"7a", ScaleArt, "Рисовать или настраивать музыкальные инструменты"}, {"7b", ScaleTech, "Управлять краном, трактором или поездом"}},
	{{"8a", ScaleHuman, "Объяснять людям нужные им сведения"}, {"8b", ScaleArt, "Оформлять выставки и витрины"}},
	{{"9a", ScaleTech, "Ремонтировать вещи, технику, жилище"}, {"9b", ScaleSign, "Искать ошибки в текстах и таблицах"}},
	{{"10a", ScaleNature, "Лечить животных"}, {"10b", ScaleSign, "Выполнять вычисления и расчёты"}},
	{{"11a", ScaleNature, "Выводить новые сорта растений"}, {"11b", ScaleTech, "Конструировать новые изделия"}},
	{{"12a", ScaleHuman, "Разбирать споры между людьми"}, {"12b", ScaleSign, "Разбираться в чертежах и схемах"}},
	{{"13a", ScaleArt, "Участвовать в художественной самодеятельности"}, {"13b", ScaleNature, "Изучать жизнь микробов"}},
	{{"14a", ScaleTech, "Налаживать медицинские приборы"}, {"14b", ScaleHuman, "Оказывать людям первую помощь"}},
	{{"15a", ScaleSign, "Составлять точные отчёты о наблюдениях"}, {"15b", ScaleArt, "Художественно описывать события"}},
	{{"16a", ScaleNature, "Делать лабораторные анализы"}, {"16b", ScaleHuman, "Принимать пациентов и назначать лечение"}},
	{{"17a", ScaleArt, "Расписывать стены и изделия"}, {"17b", ScaleTech, "Собирать машины и приборы"}},
	{{"18a", ScaleTech, "Изготавливать детали по чертежам"}, {"18b", ScaleArt, "Выступать на сцене"}},
	{{"19a", ScaleHuman, "Организовывать экскурсии и походы для младших"}, {"19b", ScaleSign, "Копировать чертежи и карты"}},
	{{"20a", ScaleNature, "Бороться с вредителями леса и сада"}, {"20b", ScaleSign, "Набирать и редактировать тексты на компьютере"}},
}

// DefaultQuestionBank возвращает встроенный опросник из 20 пар.
func DefaultQuestionBank() QuestionBank {
	bank := QuestionBank{
		Questions: make([]Question, 0, len(defaultPairs)),
		Scales:    DefaultScales(),
		Scoring:   make(ScoringTable),
	}
	for i, pair := range defaultPairs {
		q := Question{Index: i, Text: defaultPrompt}
		for _, o := range pair {
			q.Options = append(q.Options, AnswerOption{Text: o.text, Code: o.code})
			bank.Scoring.Add(o.scale, o.code)
		}
		bank.Questions = append(bank.Questions, q)
	}
	return bank
}
