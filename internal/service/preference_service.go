package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/school-planner-api/internal/dto"
	"github.com/noah-isme/school-planner-api/internal/models"
	"github.com/noah-isme/school-planner-api/internal/weekcycle"
	"github.com/noah-isme/school-planner-api/pkg/cache"
	appErrors "github.com/noah-isme/school-planner-api/pkg/errors"
	"github.com/noah-isme/school-planner-api/pkg/validation"
)

type preferenceRepository interface {
	ListByUser(ctx context.Context, userID string) ([]models.Preference, error)
	Get(ctx context.Context, userID, key string) (*models.Preference, error)
	Upsert(ctx context.Context, pref *models.Preference) error
	BulkUpsert(ctx context.Context, prefs []models.Preference) error
	ListUserIDsWithValue(ctx context.Context, key, value string) ([]string, error)
}

type auditLogger interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

type timetableInvalidator interface {
	InvalidateUser(ctx context.Context, userID string) error
}

type preferenceDefinition struct {
	Type        models.PreferenceType
	Description string
	Default     string
	// System keys are written by other services, not through the preferences API.
	System bool
}

var preferenceKeys = []string{
	models.PrefTitle,
	models.PrefPrimaryColor,
	models.PrefSecondaryColor,
	models.PrefFont,
	models.PrefBackgroundColor,
	models.PrefFontColor,
	models.PrefBackgroundObject,
	models.PrefNotificationsEnabled,
	models.PrefNotificationTime,
	models.PrefUserName,
	models.PrefOverrideWeekEnabled,
	models.PrefOverrideWeekLabel,
}

var preferenceDefinitions = map[string]preferenceDefinition{
	models.PrefTitle:                {Type: models.PreferenceTypeString, Description: "Planner title shown in the header", Default: "My School Planner"},
	models.PrefPrimaryColor:         {Type: models.PreferenceTypeColor, Description: "Accent colour of the timetable", Default: "#ff69b4"},
	models.PrefSecondaryColor:       {Type: models.PreferenceTypeColor, Description: "Cell background colour", Default: "#fce7f3"},
	models.PrefFont:                 {Type: models.PreferenceTypeString, Description: "Font family"},
	models.PrefBackgroundColor:      {Type: models.PreferenceTypeColor, Description: "Page background colour"},
	models.PrefFontColor:            {Type: models.PreferenceTypeColor, Description: "Text colour"},
	models.PrefBackgroundObject:     {Type: models.PreferenceTypeString, Description: "Uploaded background image", System: true},
	models.PrefNotificationsEnabled: {Type: models.PreferenceTypeBoolean, Description: "Send the evening bag reminder", Default: "false"},
	models.PrefNotificationTime:     {Type: models.PreferenceTypeTime, Description: "Time of the bag reminder", Default: "20:00"},
	models.PrefUserName:             {Type: models.PreferenceTypeString, Description: "Name used in reminders"},
	models.PrefOverrideWeekEnabled:  {Type: models.PreferenceTypeBoolean, Description: "Pin the week label manually", Default: "false"},
	models.PrefOverrideWeekLabel:    {Type: models.PreferenceTypeWeekLabel, Description: "Pinned week label", Default: string(weekcycle.LabelA)},
}

const maxPreferenceLength = 200

// PreferenceServiceConfig tunes runtime behaviour.
type PreferenceServiceConfig struct {
	CacheTTL time.Duration
}

// PreferenceService manages per-user planner settings, the week override
// included, behind a short-lived in-process cache.
type PreferenceService struct {
	repo      preferenceRepository
	audit     auditLogger
	timetable timetableInvalidator
	local     *cache.Local
	validator *validator.Validate
	logger    *zap.Logger
}

// NewPreferenceService constructs a PreferenceService.
func NewPreferenceService(repo preferenceRepository, audit auditLogger, timetable timetableInvalidator, validate *validator.Validate, logger *zap.Logger, cfg PreferenceServiceConfig) *PreferenceService {
	if validate == nil {
		validate = validation.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PreferenceService{
		repo:      repo,
		audit:     audit,
		timetable: timetable,
		local:     cache.NewLocal(cfg.CacheTTL),
		validator: validate,
		logger:    logger,
	}
}

// List returns every known preference of a user, defaults filled in.
func (s *PreferenceService) List(ctx context.Context, userID string) ([]dto.PreferenceItem, error) {
	stored, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	items := make([]dto.PreferenceItem, 0, len(preferenceKeys))
	for _, key := range preferenceKeys {
		items = append(items, toPreferenceItem(key, stored))
	}
	return items, nil
}

// Get returns one preference, falling back to its default.
func (s *PreferenceService) Get(ctx context.Context, userID, key string) (*dto.PreferenceItem, error) {
	if _, err := requirePreferenceKey(key, true); err != nil {
		return nil, err
	}
	stored, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	item := toPreferenceItem(key, stored)
	return &item, nil
}

// Value returns the effective string value of key.
func (s *PreferenceService) Value(ctx context.Context, userID, key string) (string, error) {
	item, err := s.Get(ctx, userID, key)
	if err != nil {
		return "", err
	}
	return item.Value, nil
}

// Update validates and stores a single preference.
func (s *PreferenceService) Update(ctx context.Context, userID string, req dto.UpdatePreferenceRequest) (*dto.PreferenceItem, error) {
	def, err := requirePreferenceKey(req.Key, false)
	if err != nil {
		return nil, err
	}
	value, err := s.normalizeValue(req.Key, def, req.Value)
	if err != nil {
		return nil, err
	}

	prev, err := s.repo.Get(ctx, userID, req.Key)
	if err != nil && err != sql.ErrNoRows {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch preference")
	}

	pref := &models.Preference{UserID: userID, Key: req.Key, Value: value, Type: def.Type}
	if err := s.repo.Upsert(ctx, pref); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update preference")
	}
	s.afterWrite(ctx, userID, []string{req.Key})
	s.emitAudit(ctx, userID, req.Key, storedValue(prev), value)

	return &dto.PreferenceItem{Key: req.Key, Value: value, Type: string(def.Type), Description: def.Description}, nil
}

// BulkUpdate applies several preferences in one transaction. Either all are
// valid and stored or none is.
func (s *PreferenceService) BulkUpdate(ctx context.Context, userID string, req dto.BulkUpdatePreferenceRequest) ([]dto.PreferenceItem, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid bulk payload")
	}

	existing, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load preferences")
	}
	previous := make(map[string]string, len(existing))
	for _, p := range existing {
		previous[p.Key] = p.Value
	}

	seen := make(map[string]int, len(req.Items))
	toUpsert := make([]models.Preference, 0, len(req.Items))
	for _, item := range req.Items {
		def, err := requirePreferenceKey(item.Key, false)
		if err != nil {
			return nil, err
		}
		value, err := s.normalizeValue(item.Key, def, item.Value)
		if err != nil {
			return nil, err
		}
		pref := models.Preference{UserID: userID, Key: item.Key, Value: value, Type: def.Type}
		// Later items win over earlier ones for the same key.
		if idx, dup := seen[item.Key]; dup {
			toUpsert[idx] = pref
			continue
		}
		seen[item.Key] = len(toUpsert)
		toUpsert = append(toUpsert, pref)
	}

	if err := s.repo.BulkUpsert(ctx, toUpsert); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to bulk update preferences")
	}

	keys := make([]string, 0, len(toUpsert))
	result := make([]dto.PreferenceItem, 0, len(toUpsert))
	for _, pref := range toUpsert {
		keys = append(keys, pref.Key)
		result = append(result, dto.PreferenceItem{
			Key:         pref.Key,
			Value:       pref.Value,
			Type:        string(pref.Type),
			Description: preferenceDefinitions[pref.Key].Description,
		})
		s.emitAudit(ctx, userID, pref.Key, previous[pref.Key], pref.Value)
	}
	s.afterWrite(ctx, userID, keys)
	return result, nil
}

// SetSystem stores a value for a key owned by another service, e.g. the
// background object written by BackgroundService.
func (s *PreferenceService) SetSystem(ctx context.Context, userID, key, value string) error {
	def, err := requirePreferenceKey(key, true)
	if err != nil {
		return err
	}
	pref := &models.Preference{UserID: userID, Key: key, Value: value, Type: def.Type}
	if err := s.repo.Upsert(ctx, pref); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store preference")
	}
	s.afterWrite(ctx, userID, []string{key})
	return nil
}

// Override returns the user's manual week override. A stored label that is
// not A or B is treated as A.
func (s *PreferenceService) Override(ctx context.Context, userID string) (weekcycle.Override, error) {
	stored, err := s.load(ctx, userID)
	if err != nil {
		return weekcycle.Override{}, err
	}
	label, perr := weekcycle.ParseWeekLabel(resolvedValue(models.PrefOverrideWeekLabel, stored))
	if perr != nil {
		label = weekcycle.LabelA
	}
	return weekcycle.Override{
		Enabled: resolvedValue(models.PrefOverrideWeekEnabled, stored) == "true",
		Label:   label,
	}, nil
}

// ReminderSettings collects the preferences that drive the bag reminder.
func (s *PreferenceService) ReminderSettings(ctx context.Context, userID string) (models.ReminderSettings, error) {
	stored, err := s.load(ctx, userID)
	if err != nil {
		return models.ReminderSettings{}, err
	}
	return models.ReminderSettings{
		UserID:   userID,
		Enabled:  resolvedValue(models.PrefNotificationsEnabled, stored) == "true",
		Time:     resolvedValue(models.PrefNotificationTime, stored),
		UserName: resolvedValue(models.PrefUserName, stored),
	}, nil
}

// UsersWithRemindersEnabled lists users that switched the bag reminder on.
func (s *PreferenceService) UsersWithRemindersEnabled(ctx context.Context) ([]string, error) {
	ids, err := s.repo.ListUserIDsWithValue(ctx, models.PrefNotificationsEnabled, "true")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list reminder users")
	}
	return ids, nil
}

func (s *PreferenceService) load(ctx context.Context, userID string) (map[string]string, error) {
	if cached, ok := s.local.Get(userID); ok {
		if values, ok := cached.(map[string]string); ok {
			return values, nil
		}
	}
	rows, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load preferences")
	}
	values := make(map[string]string, len(rows))
	for _, row := range rows {
		values[row.Key] = row.Value
	}
	s.local.Set(userID, values)
	return values, nil
}

func (s *PreferenceService) afterWrite(ctx context.Context, userID string, keys []string) {
	s.local.Delete(userID)
	if s.timetable == nil {
		return
	}
	for _, key := range keys {
		if key == models.PrefOverrideWeekEnabled || key == models.PrefOverrideWeekLabel {
			if err := s.timetable.InvalidateUser(ctx, userID); err != nil {
				s.logger.Warn("failed to invalidate timetable after override change", zap.String("user_id", userID), zap.Error(err))
			}
			return
		}
	}
}

func (s *PreferenceService) normalizeValue(key string, def preferenceDefinition, value string) (string, error) {
	value = strings.TrimSpace(value)
	switch def.Type {
	case models.PreferenceTypeBoolean:
		switch strings.ToLower(value) {
		case "true":
			return "true", nil
		case "false":
			return "false", nil
		}
		return "", appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("%s expects boolean value", key))
	case models.PreferenceTypeColor:
		if value == "" {
			return "", nil
		}
		if err := s.validator.Var(value, "hexcolor"); err != nil {
			return "", appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("%s expects a hex colour", key))
		}
		return strings.ToLower(value), nil
	case models.PreferenceTypeTime:
		if err := s.validator.Var(value, "hhmm"); err != nil {
			return "", appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("%s expects HH:MM", key))
		}
		return value, nil
	case models.PreferenceTypeWeekLabel:
		label, err := weekcycle.ParseWeekLabel(value)
		if err != nil {
			return "", appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("%s expects A or B", key))
		}
		return string(label), nil
	case models.PreferenceTypeString:
		if len(value) > maxPreferenceLength {
			return "", appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("%s is too long", key))
		}
		return value, nil
	default:
		return "", appErrors.Clone(appErrors.ErrValidation, "unsupported preference type")
	}
}

func (s *PreferenceService) emitAudit(ctx context.Context, userID, key, oldValue, newValue string) {
	if s.audit == nil || oldValue == newValue {
		return
	}
	oldBytes, _ := json.Marshal(map[string]string{"key": key, "value": oldValue})
	newBytes, _ := json.Marshal(map[string]string{"key": key, "value": newValue})
	log := &models.AuditLog{
		UserID:     strPtr(userID),
		Action:     models.AuditActionPreferenceUpdate,
		Resource:   "preference",
		ResourceID: strPtr(key),
		OldValues:  oldBytes,
		NewValues:  newBytes,
		IPAddress:  "system",
		UserAgent:  "preference-service",
	}
	if err := s.audit.CreateAuditLog(ctx, log); err != nil {
		s.logger.Warn("failed to record preference audit", zap.Error(err))
	}
}

func requirePreferenceKey(key string, allowSystem bool) (preferenceDefinition, error) {
	def, ok := preferenceDefinitions[key]
	if !ok {
		return preferenceDefinition{}, appErrors.Clone(appErrors.ErrValidation, "unsupported preference key")
	}
	if def.System && !allowSystem {
		return preferenceDefinition{}, appErrors.Clone(appErrors.ErrForbidden, fmt.Sprintf("%s is managed by the server", key))
	}
	return def, nil
}

func toPreferenceItem(key string, stored map[string]string) dto.PreferenceItem {
	def := preferenceDefinitions[key]
	value, ok := stored[key]
	if !ok {
		value = def.Default
	}
	return dto.PreferenceItem{
		Key:         key,
		Value:       value,
		Type:        string(def.Type),
		Description: def.Description,
		IsDefault:   !ok,
	}
}

func resolvedValue(key string, stored map[string]string) string {
	if value, ok := stored[key]; ok {
		return value
	}
	return preferenceDefinitions[key].Default
}

func storedValue(pref *models.Preference) string {
	if pref == nil {
		return ""
	}
	return pref.Value
}

func strPtr(value string) *string {
	if value == "" {
		return nil
	}
	result := value
	return &result
}
