package services

import (
	"testing"

	"civicform-backend/internal/apperr"
	"civicform-backend/internal/models"

	"gorm.io/gorm"
)

// surveyFixture is a live event on a form with a required name field
// (min 3 chars) and an age field capped at 150.
type surveyFixture struct {
	form    models.Form
	event   models.FormEvent
	user    models.User
	name    models.FormField
	age     models.FormField
	profile UserProfile
}

func newSurveyFixture(t *testing.T, db *gorm.DB) surveyFixture {
	t.Helper()

	form := seedForm(t, db,
		models.FormField{
			FieldKey:    "respondent_name",
			Label:       "Respondent Name",
			FieldTypeID: fieldTypeID(t, db, models.FieldTypeText),
			IsRequired:  true,
			SortOrder:   1,
			MinLength:   intPtr(3),
		},
		models.FormField{
			FieldKey:    "age",
			Label:       "Age",
			FieldTypeID: fieldTypeID(t, db, models.FieldTypeNumber),
			SortOrder:   2,
			MinValue:    strPtr("0"),
			MaxValue:    strPtr("150"),
		},
	)
	event := seedEvent(t, db, form.ID, daysFromNow(-1), strPtr(daysFromNow(7)),
		models.FormEventAccessibility{WardNumberID: 1, BoothNumberID: models.WildcardID, UserRoleID: 2})
	user := seedUser(t, db, "9100000001", 1, 1, 2)

	return surveyFixture{
		form:    form,
		event:   event,
		user:    user,
		name:    form.Fields[0],
		age:     form.Fields[1],
		profile: profileOf(user),
	}
}

func TestSubmitSuccess(t *testing.T) {
	db := setupDB(t)
	seedLookups(t, db)
	fx := newSurveyFixture(t, db)
	svc := NewSubmissionService(db, nil)

	submission, err := svc.Submit(fx.profile, SubmitInput{
		FormEventID: fx.event.ID,
		Values: []FieldValueInput{
			{FormFieldID: fx.name.ID, Value: "  Asha Rao  "},
			{FormFieldID: fx.age.ID, Value: "42"},
		},
		IPAddress: "10.0.0.1",
		UserAgent: "test-agent",
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if submission.Status != models.SubmissionStatusSubmitted {
		t.Fatalf("expected submitted status, got %d", submission.Status)
	}
	if len(submission.Values) != 2 {
		t.Fatalf("expected 2 stored values, got %d", len(submission.Values))
	}

	byKey := map[string]string{}
	for _, v := range submission.Values {
		byKey[v.FieldKey] = v.Value
	}
	if byKey["respondent_name"] != "Asha Rao" {
		t.Fatalf("expected trimmed value, got %q", byKey["respondent_name"])
	}
	if byKey["age"] != "42" {
		t.Fatalf("expected age stored, got %q", byKey["age"])
	}
}

func TestSubmitValidationFailures(t *testing.T) {
	db := setupDB(t)
	seedLookups(t, db)
	fx := newSurveyFixture(t, db)
	svc := NewSubmissionService(db, nil)

	cases := []struct {
		name   string
		values []FieldValueInput
	}{
		{"below min length", []FieldValueInput{
			{FormFieldID: fx.name.ID, Value: "ab"},
		}},
		{"above max value", []FieldValueInput{
			{FormFieldID: fx.name.ID, Value: "Asha Rao"},
			{FormFieldID: fx.age.ID, Value: "151"},
		}},
		{"required missing", []FieldValueInput{
			{FormFieldID: fx.name.ID, Value: "   "},
		}},
		{"unknown field", []FieldValueInput{
			{FormFieldID: 9999, Value: "x"},
		}},
		{"missing field id", []FieldValueInput{
			{Value: "x"},
		}},
		{"empty payload", nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Submit(fx.profile, SubmitInput{FormEventID: fx.event.ID, Values: tc.values})
			if err == nil {
				t.Fatal("expected submit to fail")
			}
			if apperr.StatusOf(err) != 400 {
				t.Fatalf("expected 400, got %d", apperr.StatusOf(err))
			}
		})
	}

	// Failed submits must leave nothing behind.
	var submissions, values int64
	db.Model(&models.FormSubmission{}).Count(&submissions)
	db.Model(&models.FormFieldValue{}).Count(&values)
	if submissions != 0 || values != 0 {
		t.Fatalf("expected clean tables after failures, got %d submissions %d values", submissions, values)
	}
}

func TestSubmitScheduleWindow(t *testing.T) {
	db := setupDB(t)
	seedLookups(t, db)
	form := seedForm(t, db)
	user := seedUser(t, db, "9100000002", 1, 1, 2)
	svc := NewSubmissionService(db, nil)

	wildcard := models.FormEventAccessibility{
		WardNumberID: models.WildcardID, BoothNumberID: models.WildcardID, UserRoleID: 2,
	}
	future := seedEvent(t, db, form.ID, daysFromNow(3), nil, wildcard)
	past := seedEvent(t, db, form.ID, daysFromNow(-10), strPtr(daysFromNow(-2)), wildcard)

	_, err := svc.Submit(profileOf(user), SubmitInput{FormEventID: future.ID, Values: []FieldValueInput{{FormFieldID: 1, Value: "x"}}})
	if err == nil || err.Error() != "form event has not started yet" {
		t.Fatalf("expected not-started rejection, got %v", err)
	}

	_, err = svc.Submit(profileOf(user), SubmitInput{FormEventID: past.ID, Values: []FieldValueInput{{FormFieldID: 1, Value: "x"}}})
	if err == nil || err.Error() != "form event has ended" {
		t.Fatalf("expected ended rejection, got %v", err)
	}
}

func TestSubmitDeniedByAccessibility(t *testing.T) {
	db := setupDB(t)
	seedLookups(t, db)
	form := seedForm(t, db)
	svc := NewSubmissionService(db, nil)

	event := seedEvent(t, db, form.ID, daysFromNow(-1), nil,
		models.FormEventAccessibility{WardNumberID: 2, BoothNumberID: models.WildcardID, UserRoleID: 2})
	outsider := seedUser(t, db, "9100000003", 1, 1, 2)

	_, err := svc.Submit(profileOf(outsider), SubmitInput{
		FormEventID: event.ID,
		Values:      []FieldValueInput{{FormFieldID: 1, Value: "x"}},
	})
	if apperr.StatusOf(err) != 403 {
		t.Fatalf("expected 403, got %v", err)
	}
}

func TestSubmitMultipleFilesStoredAsJSONArray(t *testing.T) {
	db := setupDB(t)
	seedLookups(t, db)

	form := seedForm(t, db, models.FormField{
		FieldKey:    "photo",
		Label:       "Photo",
		FieldTypeID: fieldTypeID(t, db, models.FieldTypeFile),
		SortOrder:   1,
	})
	event := seedEvent(t, db, form.ID, daysFromNow(-1), nil,
		models.FormEventAccessibility{WardNumberID: models.WildcardID, BoothNumberID: models.WildcardID, UserRoleID: 2})
	user := seedUser(t, db, "9100000004", 1, 1, 2)
	svc := NewSubmissionService(db, nil)

	photoID := form.Fields[0].ID
	submission, err := svc.Submit(profileOf(user), SubmitInput{
		FormEventID: event.ID,
		Values:      []FieldValueInput{{FormFieldID: photoID}},
		Files: map[uint][]string{
			photoID: {"/uploads/a.jpg", "/uploads/b.jpg"},
		},
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if got := submission.Values[0].Value; got != `["/uploads/a.jpg","/uploads/b.jpg"]` {
		t.Fatalf("expected JSON array of URLs, got %q", got)
	}
}

func TestSubmitSingleFileStoredBare(t *testing.T) {
	field := models.FormField{Label: "Photo"}
	got, err := resolveValue(field, "", []string{"/uploads/a.jpg"})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got != "/uploads/a.jpg" {
		t.Fatalf("expected bare URL, got %q", got)
	}
}

func TestResolveValueRegex(t *testing.T) {
	field := models.FormField{Label: "Pincode", ValidationRegex: `^\d{6}$`}

	if _, err := resolveValue(field, "560001", nil); err != nil {
		t.Fatalf("expected match: %v", err)
	}
	if _, err := resolveValue(field, "56001", nil); apperr.StatusOf(err) != 400 {
		t.Fatalf("expected format rejection, got %v", err)
	}

	broken := models.FormField{Label: "Broken", ValidationRegex: `([`}
	if _, err := resolveValue(broken, "x", nil); apperr.StatusOf(err) != 400 {
		t.Fatalf("expected invalid pattern rejection, got %v", err)
	}
}

func TestUpdateSubmissionStatusLifecycle(t *testing.T) {
	db := setupDB(t)
	seedLookups(t, db)
	fx := newSurveyFixture(t, db)
	svc := NewSubmissionService(db, nil)

	submission, err := svc.Submit(fx.profile, SubmitInput{
		FormEventID: fx.event.ID,
		Values:      []FieldValueInput{{FormFieldID: fx.name.ID, Value: "Asha Rao"}},
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	reviewed, err := svc.UpdateStatus(submission.ID, 2, models.SubmissionStatusReviewed)
	if err != nil {
		t.Fatalf("update status: %v", err)
	}
	if reviewed.Status != models.SubmissionStatusReviewed {
		t.Fatalf("expected reviewed, got %d", reviewed.Status)
	}

	if _, err := svc.UpdateStatus(submission.ID, 2, 9); apperr.StatusOf(err) != 400 {
		t.Fatalf("expected invalid status to 400, got %v", err)
	}
	if _, err := svc.UpdateStatus(submission.ID, 2, models.SubmissionStatusDeleted); apperr.StatusOf(err) != 400 {
		t.Fatalf("expected delete-via-status to 400, got %v", err)
	}

	if err := svc.Delete(submission.ID, 2); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.Get(submission.ID); apperr.StatusOf(err) != 404 {
		t.Fatalf("expected deleted submission to 404, got %v", err)
	}
}

func TestSubmissionStats(t *testing.T) {
	db := setupDB(t)
	seedLookups(t, db)
	fx := newSurveyFixture(t, db)
	svc := NewSubmissionService(db, nil)

	for i := 0; i < 3; i++ {
		if _, err := svc.Submit(fx.profile, SubmitInput{
			FormEventID: fx.event.ID,
			Values:      []FieldValueInput{{FormFieldID: fx.name.ID, Value: "Asha Rao"}},
		}); err != nil {
			t.Fatalf("submit %d: %v", i, err)
		}
	}
	if _, err := svc.UpdateStatus(1, 1, models.SubmissionStatusReviewed); err != nil {
		t.Fatalf("review: %v", err)
	}

	stats, err := svc.Stats(fx.event.ID)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Total != 3 || stats.Submitted != 2 || stats.Reviewed != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}
