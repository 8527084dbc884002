package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/reanayou-arch/Horror-Studio-Bot/internal/models"
	"github.com/reanayou-arch/Horror-Studio-Bot/internal/repository"
	"github.com/reanayou-arch/Horror-Studio-Bot/internal/session"
)

// Таблица переходов мастера: шаг с текстовым вводом -> следующий шаг.
// Линейная цепочка полей истории, затем пятишаговый подмастер персонажа.
var nextStepAfterText = map[models.DraftStep]models.DraftStep{
	models.StepTitle:           models.StepDescription,
	models.StepDescription:     models.StepHeroPast,
	models.StepHeroPast:        models.StepStartScene,
	models.StepStartScene:      models.StepCharacterMenu,
	models.StepCharName:        models.StepCharAge,
	models.StepCharAge:         models.StepCharRole,
	models.StepCharRole:        models.StepCharPersonality,
	models.StepCharPersonality: models.StepCharKnown,
}

// Сеттеры полей черновика по шагу. Содержимое не валидируется —
// мастер намеренно принимает любой текст.
var draftSetters = map[models.DraftStep]func(d *models.StoryDraft, text string){
	models.StepTitle:           func(d *models.StoryDraft, text string) { d.Title = text },
	models.StepDescription:     func(d *models.StoryDraft, text string) { d.Description = text },
	models.StepHeroPast:        func(d *models.StoryDraft, text string) { d.HeroPast = text },
	models.StepStartScene:      func(d *models.StoryDraft, text string) { d.StartScene = text },
	models.StepCharName:        func(d *models.StoryDraft, text string) { d.Pending.Name = text },
	models.StepCharAge:         func(d *models.StoryDraft, text string) { d.Pending.Age = text },
	models.StepCharRole:        func(d *models.StoryDraft, text string) { d.Pending.Role = text },
	models.StepCharPersonality: func(d *models.StoryDraft, text string) { d.Pending.Personality = text },
}

// AuthoringService ведет автора по шагам мастера создания истории
// и атомарно коммитит готовый черновик в хранилище.
type AuthoringService struct {
	authorID    int64
	sessions    session.Store
	stories     repository.StoryRepository
	characters  repository.CharacterRepository
	tx          repository.TxManager
	maxFieldLen int
	logger      *zap.Logger
}

// NewAuthoringService создает сервис авторинга.
func NewAuthoringService(
	authorID int64,
	sessions session.Store,
	stories repository.StoryRepository,
	characters repository.CharacterRepository,
	tx repository.TxManager,
	maxFieldLen int,
	logger *zap.Logger,
) *AuthoringService {
	return &AuthoringService{
		authorID:    authorID,
		sessions:    sessions,
		stories:     stories,
		characters:  characters,
		tx:          tx,
		maxFieldLen: maxFieldLen,
		logger:      logger.Named("AuthoringService"),
	}
}

// Start запускает мастер. Доступно только автору: для остальных
// возвращается models.ErrPermissionDenied и состояние не меняется.
// Повторный запуск затирает незавершенный черновик (single-author допущение).
func (s *AuthoringService) Start(ctx context.Context, userID int64) error {
	if userID != s.authorID {
		s.logger.Warn("Story creation denied for non-author", zap.Int64("userID", userID))
		return models.ErrPermissionDenied
	}

	draft := &models.StoryDraft{Step: models.StepTitle}
	if err := s.sessions.SaveDraft(ctx, userID, draft); err != nil {
		return fmt.Errorf("failed to start draft: %w", err)
	}

	s.logger.Info("Story draft started", zap.Int64("userID", userID))
	return nil
}

// CurrentStep возвращает текущий шаг мастера и признак активного черновика.
func (s *AuthoringService) CurrentStep(ctx context.Context, userID int64) (models.DraftStep, bool, error) {
	draft, ok, err := s.sessions.Draft(ctx, userID)
	if err != nil {
		return models.StepIdle, false, err
	}
	if !ok {
		return models.StepIdle, false, nil
	}
	return draft.Step, true, nil
}

// HandleText принимает один свободный текстовый ввод для текущего шага,
// сохраняет его в черновик и продвигает курсор. Возвращает новый шаг.
func (s *AuthoringService) HandleText(ctx context.Context, userID int64, text string) (models.DraftStep, error) {
	draft, ok, err := s.sessions.Draft(ctx, userID)
	if err != nil {
		return models.StepIdle, err
	}
	if !ok || !draft.Step.AwaitsText() {
		return models.StepIdle, models.ErrNoDraft
	}

	setter := draftSetters[draft.Step]
	setter(draft, truncateRunes(text, s.maxFieldLen))
	draft.Step = nextStepAfterText[draft.Step]

	if err := s.sessions.SaveDraft(ctx, userID, draft); err != nil {
		return models.StepIdle, fmt.Errorf("failed to save draft: %w", err)
	}
	return draft.Step, nil
}

// BeginCharacter открывает подмастер нового персонажа.
// При достижении лимита возвращает models.ErrCharacterLimit,
// черновик остается в меню персонажей без изменений.
func (s *AuthoringService) BeginCharacter(ctx context.Context, userID int64) error {
	draft, ok, err := s.sessions.Draft(ctx, userID)
	if err != nil {
		return err
	}
	if !ok || draft.Step != models.StepCharacterMenu {
		return models.ErrNoDraft
	}

	if len(draft.Characters) >= models.MaxCharactersPerStory {
		s.logger.Info("Character limit reached",
			zap.Int64("userID", userID),
			zap.Int("characters", len(draft.Characters)),
		)
		return models.ErrCharacterLimit
	}

	draft.Pending = models.CharacterDraft{}
	draft.Step = models.StepCharName
	if err := s.sessions.SaveDraft(ctx, userID, draft); err != nil {
		return fmt.Errorf("failed to save draft: %w", err)
	}
	return nil
}

// Characters возвращает собранных в черновике персонажей (read-only).
func (s *AuthoringService) Characters(ctx context.Context, userID int64) ([]models.CharacterDraft, error) {
	draft, ok, err := s.sessions.Draft(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, models.ErrNoDraft
	}
	return draft.Characters, nil
}

// FinishCharacter завершает подмастер бинарным выбором "знаком/незнаком",
// добавляет персонажа в черновик и возвращает мастер в меню персонажей.
func (s *AuthoringService) FinishCharacter(ctx context.Context, userID int64, known models.KnownStatus) (int, error) {
	draft, ok, err := s.sessions.Draft(ctx, userID)
	if err != nil {
		return 0, err
	}
	if !ok || draft.Step != models.StepCharKnown {
		return 0, models.ErrNoDraft
	}

	draft.Pending.Known = known
	draft.Characters = append(draft.Characters, draft.Pending)
	draft.Pending = models.CharacterDraft{}
	draft.Step = models.StepCharacterMenu

	if err := s.sessions.SaveDraft(ctx, userID, draft); err != nil {
		return 0, fmt.Errorf("failed to save draft: %w", err)
	}

	s.logger.Info("Character added to draft",
		zap.Int64("userID", userID),
		zap.Int("characters", len(draft.Characters)),
	)
	return len(draft.Characters), nil
}

// Commit атомарно сохраняет историю вместе со всеми персонажами и очищает
// черновик. Сбой любой вставки откатывает всю транзакцию — частично
// созданных историй не бывает.
func (s *AuthoringService) Commit(ctx context.Context, userID int64) (int64, error) {
	draft, ok, err := s.sessions.Draft(ctx, userID)
	if err != nil {
		return 0, err
	}
	if !ok || draft.Step != models.StepCharacterMenu {
		return 0, models.ErrNoDraft
	}

	story := &models.Story{
		Title:       draft.Title,
		Description: draft.Description,
		HeroPast:    draft.HeroPast,
		StartScene:  draft.StartScene,
	}

	var storyID int64
	err = s.tx.WithinTx(ctx, func(q repository.Querier) error {
		id, err := s.stories.Create(ctx, q, story)
		if err != nil {
			return err
		}
		storyID = id

		for _, c := range draft.Characters {
			character := &models.Character{
				StoryID:     storyID,
				Name:        c.Name,
				Role:        formatCharacterRole(c),
				Personality: c.Personality,
				Known:       c.Known,
			}
			if err := s.characters.Create(ctx, q, character); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.logger.Error("Story commit failed", zap.Int64("userID", userID), zap.Error(err))
		return 0, fmt.Errorf("failed to commit story draft: %w", err)
	}

	if err := s.sessions.ClearDraft(ctx, userID); err != nil {
		// История уже сохранена, поэтому сбой очистки не фатален
		s.logger.Warn("Failed to clear committed draft", zap.Int64("userID", userID), zap.Error(err))
	}

	s.logger.Info("Story committed",
		zap.Int64("userID", userID),
		zap.Int64("storyID", storyID),
		zap.Int("characters", len(draft.Characters)),
	)
	return storyID, nil
}

// formatCharacterRole склеивает роль с возрастом в персистентное
// представление вида "роль (30 лет)".
func formatCharacterRole(c models.CharacterDraft) string {
	if c.Age == "" {
		return c.Role
	}
	return fmt.Sprintf("%s (%s лет)", c.Role, c.Age)
}

// truncateRunes обрезает строку до max рун. Содержимое полей не
// валидируется, но длина ограничена, чтобы не раздувать промпт.
func truncateRunes(s string, max int) string {
	if max <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
