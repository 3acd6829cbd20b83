package dispatch

// Menu labels. Incoming text equal to a label selects the action.
const (
	LabelSummary    = "📝 Сделать конспект"
	LabelSearch     = "🔍 Найти информацию"
	LabelPhoto      = "🖼️ Решить по фото"
	LabelNotes      = "📚 Мои конспекты"
	LabelCalculator = "🧮 Калькулятор формул"
)

const (
	msgGreeting = "📚 Привет! Я твой бесплатный учебный помощник.\nВыбери действие:"

	msgPromptSummary    = "📖 Введите тему для конспекта:"
	msgPromptSearch     = "🔎 Что вас интересует? Введите запрос:"
	msgPromptPhoto      = "📸 Отправьте фото с задачей:"
	msgPromptCalculator = "🧮 Введите математическое выражение или задачу:"

	msgNoNotes        = "📭 У вас пока нет сохраненных конспектов."
	msgNotesHeader    = "📚 Ваши конспекты:\n\n"
	msgNotesFooter    = "\nОтправьте номер конспекта для просмотра:"
	msgNotesLoadError = "⚠️ Произошла ошибка при загрузке конспектов."
	msgNoteFormat     = "📘 Конспект: %s\n\n%s"
	msgWrongIndex     = "❌ Неверный номер конспекта."
	msgNotANumber     = "❌ Пожалуйста, введите номер конспекта."

	msgProgressSummary = "⏳ Создаю конспект..."
	msgProgressSearch  = "⏳ Ищу информацию..."
	msgProgressSolve   = "⏳ Решаю задачу..."
	msgProgressPhoto   = "⏳ Обрабатываю фото..."

	msgRecognized = "📖 Распознанный текст:\n%s\n\n⏳ Ищу решение..."
	photoTopic    = "Задача с фото"

	msgChooseAction = "ℹ️ Пожалуйста, выберите действие из меню."
	msgChoosePhoto  = "ℹ️ Пожалуйста, сначала выберите действие '" + LabelPhoto + "' в меню."

	msgUnexpected = "⚠️ Произошла непредвиденная ошибка. Попробуйте позже."
	msgPhotoError = "⚠️ Произошла ошибка при обработке фото. Попробуйте еще раз."

	msgProviderError = "⚠️ Сервис временно недоступен. Попробуйте позже."
)

// MenuLabels lists the menu in display order.
func MenuLabels() []string {
	return []string{LabelSummary, LabelSearch, LabelPhoto, LabelNotes, LabelCalculator}
}
