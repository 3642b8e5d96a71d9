package service

// ScaleID - идентификатор шкалы интересов. Он же имя листа в таблице
// профессий.
type ScaleID string

const (
	ScaleNature ScaleID = "nature"
	ScaleTech   ScaleID = "tech"
	ScaleHuman  ScaleID = "human"
	ScaleSign   ScaleID = "sign"
	ScaleArt    ScaleID = "art"
)

type Scale struct {
	ID          ScaleID
	Title       string
	Description string
}

// ScoringTable сопоставляет шкале коды ответов, дающие ей балл. Множества
// могут пересекаться.
type ScoringTable map[ScaleID]map[string]struct{}

func (t ScoringTable) Add(scale ScaleID, codes ...string) {
	set, ok := t[scale]
	if !ok {
		set = make(map[string]struct{}, len(codes))
		t[scale] = set
	}
	for _, c := range codes {
		set[c] = struct{}{}
	}
}

func (t ScoringTable) Awards(scale ScaleID, code string) bool {
	_, ok := t[scale][code]
	return ok
}

// DefaultScales возвращает пять шкал в порядке объявления. Он же решает
// ничьи в рейтинге.
func DefaultScales() []Scale {
	return []Scale{
		{
			ID:          ScaleNature,
			Title:       "Человек-природа",
			Description: "Тебе интересны живая природа, растения и животные, экология и биология.",
		},
		{
			ID:          ScaleTech,
			Title:       "Человек-техника",
			Description: "Тебя привлекают машины, механизмы, конструирование и работа руками с техникой.",
		},
		{
			ID:          ScaleHuman,
			Title:       "Человек-человек",
			Description: "Тебе нравится общаться, помогать, учить и организовывать людей.",
		},
		{
			ID:          ScaleSign,
			Title:       "Человек-знаковая система",
			Description: "Тебе близки числа, формулы, тексты, схемы и программирование.",
		},
		{
			ID:          ScaleArt,
			Title:       "Человек-художественный образ",
			Description: "Тебя вдохновляют творчество, дизайн, музыка, сцена и искусство.",
		},
	}
}
