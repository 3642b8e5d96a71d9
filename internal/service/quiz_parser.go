package service

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
)

// ParseQuestionBank читает файл банка вопросов. Формат - блоки, разделённые
// пустыми строками:
//
//	? prompt text
//	code | scale[,scale...] | option text
//	code | scale | option text
//
// Строки с # - комментарии. Шкалы - стандартные пять.
func ParseQuestionBank(filename string) (QuestionBank, error) {
	file, err := os.Open(filename)
	if err != nil {
		return QuestionBank{}, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	return ReadQuestionBank(file)
}

func ReadQuestionBank(r io.Reader) (QuestionBank, error) {
	bank := QuestionBank{
		Scales:  DefaultScales(),
		Scoring: make(ScoringTable),
	}
	known := make(map[ScaleID]struct{}, len(bank.Scales))
	for _, s := range bank.Scales {
		known[s.ID] = struct{}{}
	}

	var current *Question
	flush := func() {
		if current != nil {
			bank.Questions = append(bank.Questions, *current)
			current = nil
		}
	}

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "" || strings.HasPrefix(line, "#"):
			continue
		case strings.HasPrefix(line, "?"):
			flush()
			text := strings.TrimSpace(strings.TrimPrefix(line, "?"))
			if text == "" {
				return QuestionBank{}, fmt.Errorf("line %d: %w: empty prompt", lineNo, ErrInvalidBank)
			}
			current = &Question{Index: len(bank.Questions), Text: text}
		default:
			if current == nil {
				return QuestionBank{}, fmt.Errorf("line %d: %w: option before any prompt", lineNo, ErrInvalidBank)
			}
			option, scales, err := parseOptionLine(line)
			if err != nil {
				return QuestionBank{}, fmt.Errorf("line %d: %w", lineNo, err)
			}
			for _, s := range scales {
				if _, ok := known[s]; !ok {
					return QuestionBank{}, fmt.Errorf("line %d: %w: %q", lineNo, ErrUnknownScale, s)
				}
				bank.Scoring.Add(s, option.Code)
			}
			current.Options = append(current.Options, option)
		}
	}
	if err := scanner.Err(); err != nil {
		return QuestionBank{}, fmt.Errorf("error reading file: %w", err)
	}
	flush()

	if err := bank.Validate(); err != nil {
		return QuestionBank{}, err
	}
	return bank, nil
}

// parseOptionLine разбирает "code | scale[,scale] | text". Пустой столбец шкал -
// вариант без баллов.
func parseOptionLine(line string) (AnswerOption, []ScaleID, error) {
	parts := strings.SplitN(line, "|", 3)
	if len(parts) != 3 {
		return AnswerOption{}, nil, fmt.Errorf("%w: expected \"code | scale | text\"", ErrInvalidBank)
	}

	code := strings.TrimSpace(parts[0])
	text := strings.TrimSpace(parts[2])
	if code == "" || text == "" {
		return AnswerOption{}, nil, fmt.Errorf("%w: empty code or text", ErrInvalidBank)
	}
	if strings.ContainsAny(code, "_ ") {
		return AnswerOption{}, nil, fmt.Errorf("%w: code %q must not contain spaces or underscores", ErrInvalidBank, code)
	}

	var scales []ScaleID
	for _, s := range strings.Split(parts[1], ",") {
		if s = strings.TrimSpace(s); s != "" {
			scales = append(scales, ScaleID(s))
		}
	}
	return AnswerOption{Text: text, Code: code}, scales, nil
}

// LoadQuestionBank загружает банк из файла или возвращает встроенный при ошибке.
func LoadQuestionBank(filename string, logger *zap.Logger) QuestionBank {
	bank, err := ParseQuestionBank(filename)
	if err != nil {
		logger.Warn("failed to load question bank, using default",
			zap.String("file", filename), zap.Error(err))
		return DefaultQuestionBank()
	}

	logger.Info("question bank loaded",
		zap.String("file", filename), zap.Int("questions", len(bank.Questions)))
	return bank
}
