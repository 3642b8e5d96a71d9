package telegram

const (
	textMainMenu = "📋 <b>Главное меню</b>\n\n" +
		"Я помогу разобраться, какие STEM-направления тебе ближе, " +
		"и расскажу о профессиях в каждом из них."

	textAboutTest = "🧭 <b>STEM-навигатор</b>\n\n" +
		"Тест состоит из пар утверждений. В каждой паре выбери то занятие, " +
		"которое тебе больше нравится. Правильных и неправильных ответов нет.\n\n" +
		"В конце ты увидишь три типа профессий, которые подходят тебе больше всего, " +
		"и сможешь посмотреть направления и профессии внутри каждого из них."

	textAbout = "ℹ️ <b>О проекте</b>\n\n" +
		"STEM-навигатор помогает школьникам выбрать направление в науке, технологиях, " +
		"инженерии и математике.\n\n" +
		"Исходный код: https://github.com/PoluyanbIch/stemnavigator"

	textQuestion       = "❓ <b>Вопрос %d/%d</b>\n\n%s"
	textResultsTitle   = "🌟 <b>Вот твой результат:</b>\n\n"
	textResultsEmpty   = "Не удалось определить подходящие типы профессий. Попробуй пройти тест ещё раз."
	textResultsFooter  = "Нажми на тип профессий, чтобы посмотреть направления."
	textScaleHeader    = "<b>%s</b>\n\nВыберите направление:"
	textCatalogHeader  = "📚 <b>Каталог профессий</b>\n\nВыберите интересующее вас направление:"
	textDirectionTitle = "<b>%s</b>\n\nВыберите профессию:"
	textReset          = "🔄 Прогресс сброшен. Можно начать заново."
	textUnknownCommand = "Неизвестная команда"

	alertStale        = "Произошла ошибка, пожалуйста, вернитесь назад."
	alertComingSoon   = "Профессии для этого направления скоро будут добавлены."
	alertUnavailable  = "Каталог профессий временно недоступен. Попробуйте позже."
	alertServiceError = "Сервис временно недоступен. Попробуйте позже."
)

var placeEmojis = []string{"🥇 1 место:", "🥈 2 место:", "🥉 3 место:"}

const (
	btnNavigator   = "🧭 STEM-навигатор"
	btnProfessions = "💼 Профессии"
	btnAbout       = "ℹ️ О проекте"
	btnStartTest   = "📝 Пройти тест"
	btnRestartTest = "🔄 Пройти тест заново"
	btnMainMenu    = "🏠 Главное меню"
	btnViewScale   = "Посмотреть профессии: %s"
	btnBackResults = "⬅️ Назад к результатам"
	btnBackDirs    = "⬅️ Назад к направлениям"
	btnBackProfs   = "⬅️ Назад к профессиям"
	btnMore        = "📄 Доп. информация"
	btnLess        = "🔼 Скрыть доп. информацию"
)
