package service

import (
	"context"
	"fmt"
	"html"
	"sort"
	"strings"
)

// Field - одно из известных текстовых полей карточки профессии.
type Field int

const (
	FieldAbout Field = iota
	FieldDuties
	FieldQualities
	FieldWhereToStudy
	FieldFaculties
	FieldExamples
	FieldWorkplaces
	FieldSalary
	FieldProspects
	FieldRelated
	FieldCareer
	FieldEnvironment
	FieldDifficulties
	FieldFamous
)

var fieldTitles = [...]string{
	FieldAbout:        "О чём профессия?",
	FieldDuties:       "Чем занимаются?",
	FieldQualities:    "Какими качествами нужно обладать",
	FieldWhereToStudy: "Где учиться",
	FieldFaculties:    "Факультеты",
	FieldExamples:     "Живые примеры",
	FieldWorkplaces:   "Где можно работать",
	FieldSalary:       "Сколько зарабатывают",
	FieldProspects:    "Перспективы",
	FieldRelated:      "Смежные профессии",
	FieldCareer:       "Карьерный рост",
	FieldEnvironment:  "Рабочая обстановка",
	FieldDifficulties: "Трудности",
	FieldFamous:       "Знаменитые представители профессии",
}

// Title - заголовок столбца в таблице профессий и подпись поля на карточке.
func (f Field) Title() string {
	if f < 0 || int(f) >= len(fieldTitles) {
		return fmt.Sprintf("Field(%d)", int(f))
	}
	return fieldTitles[f]
}

// FieldByTitle находит поле по заголовку столбца.
func FieldByTitle(title string) (Field, bool) {
	title = strings.TrimSpace(title)
	for i, t := range fieldTitles {
		if t == title {
			return Field(i), true
		}
	}
	return 0, false
}

// Поля краткой карточки и поля, которые добавляет полная.
var (
	PrimaryFields = []Field{
		FieldAbout,
		FieldDuties,
		FieldQualities,
		FieldWhereToStudy,
		FieldFaculties,
	}
	AdditionalFields = []Field{
		FieldExamples,
		FieldWorkplaces,
		FieldSalary,
		FieldProspects,
		FieldRelated,
		FieldCareer,
		FieldEnvironment,
		FieldDifficulties,
		FieldFamous,
	}
)

type Profession struct {
	Scale     ScaleID          `json:"scale"`
	Direction string           `json:"direction"`
	Name      string           `json:"name"`
	Fields    map[Field]string `json:"fields,omitempty"`
}

// ProfessionSource отдаёт записи профессий. Реализация может читать их из
// таблицы; движок видит только готовые срезы.
type ProfessionSource interface {
	ByScale(ctx context.Context, scale ScaleID) ([]Profession, error)
	All(ctx context.Context) ([]Profession, error)
}

// StaticProfessions - ProfessionSource в памяти.
type StaticProfessions []Profession

func (p StaticProfessions) ByScale(_ context.Context, scale ScaleID) ([]Profession, error) {
	var out []Profession
	for _, prof := range p {
		if prof.Scale == scale {
			out = append(out, prof)
		}
	}
	return out, nil
}

func (p StaticProfessions) All(context.Context) ([]Profession, error) {
	return p, nil
}

// ListDirections возвращает отсортированные непустые направления шкалы без
// повторов.
func ListDirections(professions []Profession, scale ScaleID) []string {
	var matching []Profession
	for _, p := range professions {
		if p.Scale == scale {
			matching = append(matching, p)
		}
	}
	return directionsOf(matching)
}

func directionsOf(professions []Profession) []string {
	seen := make(map[string]struct{})
	directions := []string{}
	for _, p := range professions {
		if p.Direction == "" {
			continue
		}
		if _, ok := seen[p.Direction]; ok {
			continue
		}
		seen[p.Direction] = struct{}{}
		directions = append(directions, p.Direction)
	}
	sort.Strings(directions)
	return directions
}

// ListProfessions оставляет профессии шкалы в направлении, в исходном порядке.
func ListProfessions(professions []Profession, scale ScaleID, direction string) []Profession {
	out := []Profession{}
	for _, p := range professions {
		if p.Scale == scale && p.Direction == direction {
			out = append(out, p)
		}
	}
	return out
}

func professionsIn(professions []Profession, direction string) []Profession {
	out := []Profession{}
	for _, p := range professions {
		if p.Direction == direction {
			out = append(out, p)
		}
	}
	return out
}

// RenderSummary рисует краткую карточку в Telegram HTML.
func RenderSummary(p Profession) string {
	return renderCard(p, "\n", PrimaryFields)
}

// RenderDetail рисует полную карточку: основные поля, затем дополнительные.
func RenderDetail(p Profession) string {
	fields := make([]Field, 0, len(PrimaryFields)+len(AdditionalFields))
	fields = append(fields, PrimaryFields...)
	fields = append(fields, AdditionalFields...)
	return renderCard(p, "\n\n", fields)
}

func renderCard(p Profession, sep string, fields []Field) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<b>%s</b>\n\n", html.EscapeString(p.Name))
	for _, f := range fields {
		value := strings.TrimSpace(p.Fields[f])
		if value == "" {
			continue
		}
		fmt.Fprintf(&b, "<b>%s:</b> %s%s", html.EscapeString(f.Title()), html.EscapeString(value), sep)
	}
	return b.String()
}
