package services

import (
	"math"
	"strconv"
	"strings"
	"time"

	"civicform-backend/internal/apperr"
	"civicform-backend/internal/meta"
	"civicform-backend/internal/models"

	"gorm.io/gorm"
)

type ReportService struct {
	db    *gorm.DB
	meta  *meta.Registry
	users *UserService
}

func NewReportService(db *gorm.DB, registry *meta.Registry, users *UserService) *ReportService {
	return &ReportService{db: db, meta: registry, users: users}
}

type ReportFilters struct {
	WardNumberID  *int64
	BoothNumberID *int64
	SubmittedBy   *uint
	SubmittedFrom string
	SubmittedTo   string
}

type ReportMetrics struct {
	TotalSubmissions int64 `json:"total_submissions"`
}

type TabularData struct {
	Headers        []string        `json:"headers"`
	Data           [][]interface{} `json:"data"`
	NumericColumns []bool          `json:"numeric_columns"`
}

type Report struct {
	FormEvent   *models.FormEvent `json:"form_event"`
	Metrics     ReportMetrics     `json:"metrics"`
	TabularData TabularData       `json:"tabular_data"`
}

// Generate reconstructs the event's submissions into a labeled table. Stored
// ids are resolved back to display labels via the meta registry and field
// options; typed values are reformatted per field type.
func (s *ReportService) Generate(profile UserProfile, formEventID uint, filters ReportFilters) (*Report, error) {
	var event models.FormEvent
	if err := s.db.Where("id = ?", formEventID).Preload("Form").First(&event).Error; err != nil {
		return nil, apperr.NotFound("form event not found")
	}

	var fields []models.FormField
	if err := s.db.Where("form_id = ? AND status = ?", event.FormID, models.StatusActive).
		Preload("FieldType").
		Preload("InputFormat").
		Preload("Options", func(db *gorm.DB) *gorm.DB {
			return db.Where("status = ?", models.StatusActive).Order("sort_order ASC")
		}).
		Order("sort_order ASC").
		Find(&fields).Error; err != nil {
		return nil, err
	}

	allowedIDs, restricted, err := s.allowedSubmissionIDs(formEventID, filters)
	if err != nil {
		return nil, err
	}

	submitterIDs, submitterRestricted, err := s.allowedSubmitterIDs(profile, filters.SubmittedBy)
	if err != nil {
		return nil, err
	}

	query := s.db.Where("form_event_id = ? AND status = ?", formEventID, models.SubmissionStatusSubmitted).
		Preload("Values").
		Preload("User").
		Order("submitted_at DESC")
	if restricted {
		query = query.Where("id IN ?", emptySafe(allowedIDs))
	}
	if submitterRestricted {
		query = query.Where("user_id IN ?", emptySafe(submitterIDs))
	}
	if filters.SubmittedFrom != "" {
		from, err := normalizeDate(filters.SubmittedFrom)
		if err != nil {
			return nil, err
		}
		query = query.Where("submitted_at >= ?", from)
	}
	if filters.SubmittedTo != "" {
		to, err := normalizeDate(filters.SubmittedTo)
		if err != nil {
			return nil, err
		}
		query = query.Where("submitted_at < ?", nextDay(to))
	}

	var submissions []models.FormSubmission
	if err := query.Find(&submissions).Error; err != nil {
		return nil, err
	}

	headers := make([]string, 0, len(fields)+3)
	for _, f := range fields {
		headers = append(headers, f.Label)
	}
	headers = append(headers, "Submitted By", "Submitted At", "Submission ID")
	numeric := make([]bool, len(headers))

	data := make([][]interface{}, 0, len(submissions))
	for _, sub := range submissions {
		valueByField := make(map[uint]string, len(sub.Values))
		for _, v := range sub.Values {
			valueByField[v.FormFieldID] = v.Value
		}

		row := make([]interface{}, 0, len(headers))
		for i, f := range fields {
			cell, isNumber, err := s.renderCell(f, valueByField[f.ID])
			if err != nil {
				return nil, err
			}
			if isNumber {
				numeric[i] = true
			}
			row = append(row, cell)
		}
		row = append(row, submitterLabel(sub.User), sub.SubmittedAt.Format("02-01-2006 15:04:05"), sub.ID)
		data = append(data, row)
	}

	return &Report{
		FormEvent: &event,
		Metrics:   ReportMetrics{TotalSubmissions: int64(len(data))},
		TabularData: TabularData{
			Headers:        headers,
			Data:           data,
			NumericColumns: numeric,
		},
	}, nil
}

// allowedSubmissionIDs applies the ward/booth pre-filters by matching stored
// values of the reserved field keys, intersecting the id sets when both
// filters are present.
func (s *ReportService) allowedSubmissionIDs(formEventID uint, filters ReportFilters) (map[uint]bool, bool, error) {
	var result map[uint]bool
	restricted := false

	apply := func(fieldKey string, wanted int64) error {
		matched, err := s.submissionIDsMatching(formEventID, fieldKey, wanted)
		if err != nil {
			return err
		}
		if result == nil {
			result = matched
		} else {
			result = intersect(result, matched)
		}
		restricted = true
		return nil
	}

	if filters.WardNumberID != nil && *filters.WardNumberID != models.WildcardID {
		if err := apply(models.FieldKeyWardNumber, *filters.WardNumberID); err != nil {
			return nil, false, err
		}
	}
	if filters.BoothNumberID != nil && *filters.BoothNumberID != models.WildcardID {
		if err := apply(models.FieldKeyBoothNumber, *filters.BoothNumberID); err != nil {
			return nil, false, err
		}
	}
	return result, restricted, nil
}

// submissionIDsMatching finds submissions whose stored value for the reserved
// field key contains the wanted id, honoring comma-joined multi-values.
func (s *ReportService) submissionIDsMatching(formEventID uint, fieldKey string, wanted int64) (map[uint]bool, error) {
	type pair struct {
		FormSubmissionID uint
		Value            string
	}
	var pairs []pair
	err := s.db.Model(&models.FormFieldValue{}).
		Select("form_field_values.form_submission_id, form_field_values.value").
		Joins("JOIN form_submissions fs ON fs.id = form_field_values.form_submission_id").
		Where("fs.form_event_id = ? AND form_field_values.field_key = ?", formEventID, fieldKey).
		Scan(&pairs).Error
	if err != nil {
		return nil, err
	}

	wantedStr := strconv.FormatInt(wanted, 10)
	matched := make(map[uint]bool)
	for _, p := range pairs {
		for _, part := range strings.Split(p.Value, ",") {
			if strings.TrimSpace(part) == wantedStr {
				matched[p.FormSubmissionID] = true
				break
			}
		}
	}
	return matched, nil
}

// allowedSubmitterIDs builds the requester's visibility set from descendant
// roles; an explicit submittedBy filter narrows it further, never widens it.
func (s *ReportService) allowedSubmitterIDs(profile UserProfile, submittedBy *uint) ([]uint, bool, error) {
	var hierarchy []uint
	hierarchyRestricted := false

	if len(profile.RoleIDs) > 0 {
		roleIDs, err := s.users.DescendantRoleIDs(profile.RoleIDs)
		if err != nil {
			return nil, false, err
		}
		hierarchy, err = s.users.UserIDsWithRoles(roleIDs)
		if err != nil {
			return nil, false, err
		}
		hierarchyRestricted = true
	}

	if submittedBy == nil {
		return hierarchy, hierarchyRestricted, nil
	}
	if !hierarchyRestricted {
		return []uint{*submittedBy}, true, nil
	}
	for _, id := range hierarchy {
		if id == *submittedBy {
			return []uint{*submittedBy}, true, nil
		}
	}
	return []uint{}, true, nil
}

// renderCell resolves one stored value into its display form, following the
// precedence meta table -> options -> date/time formatting -> number -> raw.
func (s *ReportService) renderCell(field models.FormField, value string) (interface{}, bool, error) {
	if strings.TrimSpace(value) == "" {
		return "", false, nil
	}

	metaTable := field.MetaTable
	if metaTable == "" {
		switch field.FieldKey {
		case models.FieldKeyWardNumber:
			metaTable = "wards"
		case models.FieldKeyBoothNumber:
			metaTable = "booths"
		}
	}
	// A meta_table that was never registered falls through to the plain
	// renderers instead of failing the whole report.
	if _, registered := s.meta.Lookup(metaTable); metaTable != "" && registered {
		label, err := s.resolveMetaLabels(metaTable, value)
		if err != nil {
			return nil, false, err
		}
		return label, false, nil
	}

	if len(field.Options) > 0 {
		return resolveOptionLabels(field.Options, value), false, nil
	}

	switch dateKind(field) {
	case "date":
		return reformat(value, "02-01-2006"), false, nil
	case "time":
		return reformat(value, "15:04:05"), false, nil
	case "datetime":
		return reformat(value, "02-01-2006 15:04:05"), false, nil
	}

	if num, err := strconv.ParseFloat(value, 64); err == nil && !math.IsNaN(num) && !math.IsInf(num, 0) {
		return num, true, nil
	}

	return value, false, nil
}

func (s *ReportService) resolveMetaLabels(table, value string) (string, error) {
	ids := splitMulti(value)
	labels, err := s.meta.Resolve(table, ids)
	if err != nil {
		return "", err
	}
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if label, ok := labels[id]; ok {
			out = append(out, label)
		} else {
			out = append(out, id)
		}
	}
	return strings.Join(out, ", "), nil
}

// resolveOptionLabels maps stored option ids (or raw option values) back to
// their labels, preserving submitted order.
func resolveOptionLabels(options []models.FormFieldOption, value string) string {
	byID := make(map[string]string, len(options))
	byValue := make(map[string]string, len(options))
	for _, o := range options {
		byID[strconv.FormatUint(uint64(o.ID), 10)] = o.OptionLabel
		byValue[o.OptionValue] = o.OptionLabel
	}

	parts := splitMulti(value)
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if label, ok := byID[part]; ok {
			out = append(out, label)
		} else if label, ok := byValue[part]; ok {
			out = append(out, label)
		} else {
			out = append(out, part)
		}
	}
	return strings.Join(out, ", ")
}

func dateKind(field models.FormField) string {
	names := []string{field.FieldType.Name}
	if field.InputFormat != nil {
		names = append(names, field.InputFormat.Name)
	}
	for _, name := range names {
		switch name {
		case models.FieldTypeDatetime:
			return "datetime"
		case models.FieldTypeDate:
			return "date"
		case models.FieldTypeTime:
			return "time"
		}
	}
	return ""
}

// reformat tolerates ISO-ish raw inputs as well as values already in the
// target layout; anything unrecognized passes through unchanged.
func reformat(value string, target string) string {
	layouts := []string{
		target,
		"2006-01-02T15:04:05Z07:00",
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
		"2006-01-02",
		"02-01-2006 15:04:05",
		"02-01-2006",
		"15:04:05",
		"15:04",
	}
	trimmed := strings.TrimSpace(value)
	for _, layout := range layouts {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return t.Format(target)
		}
	}
	return trimmed
}

func nextDay(date string) string {
	t, err := time.Parse(dateLayout, date)
	if err != nil {
		return date
	}
	return t.AddDate(0, 0, 1).Format(dateLayout)
}

func splitMulti(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func submitterLabel(user models.User) string {
	if user.FullName != "" {
		return user.FullName
	}
	if user.Phone != "" {
		return user.Phone
	}
	return strconv.FormatUint(uint64(user.ID), 10)
}

func intersect(a, b map[uint]bool) map[uint]bool {
	out := make(map[uint]bool)
	for id := range a {
		if b[id] {
			out[id] = true
		}
	}
	return out
}

// emptySafe keeps an IN clause valid when the allowed set is empty; no row
// has id 0, so the query matches nothing.
func emptySafe(set interface{}) interface{} {
	switch v := set.(type) {
	case map[uint]bool:
		ids := make([]uint, 0, len(v))
		for id := range v {
			ids = append(ids, id)
		}
		if len(ids) == 0 {
			return []uint{0}
		}
		return ids
	case []uint:
		if len(v) == 0 {
			return []uint{0}
		}
		return v
	}
	return set
}
