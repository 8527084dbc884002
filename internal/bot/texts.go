package bot

import (
	"github.com/reanayou-arch/Horror-Studio-Bot/internal/models"
)

// Пользовательские тексты Horror-Studio Bot.
const (
	textWelcome          = "👻 Добро пожаловать в Horror-Studio Bot!\n\nВыберите действие:"
	textPermissionDenied = "❌ Только автор может создавать истории."
	textCharacterLimit   = "❌ Лимит персонажей: 15."
	textCharacterAdded   = "✅ Персонаж добавлен!"
	textContinue         = "Продолжить:"
	textStoryCreated     = "История создана! ✔️"
	textNoStories        = "Историй пока нет."
	textCharacterMenu    = "История почти готова.\nДобавьте персонажей (до 15)."
	textKnownQuestion    = "Вы знакомы с ним?"
	textPickStory        = "Выберите историю:"
	textMainMenu         = "Главное меню:"
	textStoryNotFound    = "❌ История не найдена."
	textAuthoringFailed  = "❌ Не удалось создать историю. Попробуйте еще раз."
	textNoCharactersYet  = "Персонажей пока нет."
)

// Подписи к шагам мастера: что спросить у автора на каждом шаге
// с текстовым вводом.
var stepPrompts = map[models.DraftStep]string{
	models.StepTitle:           "Введите название истории:",
	models.StepDescription:     "Введите описание истории (для ИИ):",
	models.StepHeroPast:        "Введите прошлое главного героя:",
	models.StepStartScene:      "Введите обстоятельства начала истории (вступительная сцена):",
	models.StepCharName:        "Введите имя персонажа:",
	models.StepCharAge:         "Введите возраст персонажа:",
	models.StepCharRole:        "Введите роль персонажа:",
	models.StepCharPersonality: "Опишите характер персонажа:",
}
