package services

import (
	"encoding/json"
	"testing"

	"civicform-backend/internal/apperr"
	"civicform-backend/internal/models"
)

func TestCreateFormWithNestedFields(t *testing.T) {
	db := setupDB(t)
	seedLookups(t, db)
	svc := NewFormService(db)

	textID := fieldTypeID(t, db, models.FieldTypeText)
	dropdownID := fieldTypeID(t, db, models.FieldTypeDropdown)

	form, err := svc.CreateForm(1, FormInput{
		Title: "Household Survey",
		Fields: []FieldInput{
			{
				FieldKey:    "respondent_name",
				Label:       "Respondent Name",
				FieldTypeID: textID,
				IsRequired:  true,
				SortOrder:   1,
				MinLength:   intPtr(3),
			},
			{
				FieldKey:    "water_source",
				Label:       "Water Source",
				FieldTypeID: dropdownID,
				SortOrder:   2,
				Options: []OptionInput{
					{OptionLabel: "Municipal", OptionValue: "municipal", SortOrder: 1},
					{OptionLabel: "Borewell", OptionValue: "borewell", SortOrder: 2},
				},
			},
		},
	})
	if err != nil {
		t.Fatalf("create form: %v", err)
	}
	if len(form.Fields) != 2 {
		t.Fatalf("expected 2 fields, got %d", len(form.Fields))
	}
	if form.Fields[0].FieldKey != "respondent_name" {
		t.Fatalf("expected fields ordered by sort_order, got %q first", form.Fields[0].FieldKey)
	}
	if len(form.Fields[1].Options) != 2 {
		t.Fatalf("expected 2 options, got %d", len(form.Fields[1].Options))
	}
}

func TestCreateFormRejectsDuplicateFieldKey(t *testing.T) {
	db := setupDB(t)
	seedLookups(t, db)
	svc := NewFormService(db)

	textID := fieldTypeID(t, db, models.FieldTypeText)
	_, err := svc.CreateForm(1, FormInput{
		Title: "Survey",
		Fields: []FieldInput{
			{FieldKey: "name", Label: "Name", FieldTypeID: textID},
			{FieldKey: "name", Label: "Name Again", FieldTypeID: textID},
		},
	})
	if err == nil {
		t.Fatal("expected duplicate field key to fail")
	}
	if apperr.StatusOf(err) != 400 {
		t.Fatalf("expected 400, got %d", apperr.StatusOf(err))
	}

	var count int64
	db.Model(&models.Form{}).Count(&count)
	if count != 0 {
		t.Fatalf("expected no form rows after rejected create, got %d", count)
	}
}

func TestCreateFormValidation(t *testing.T) {
	db := setupDB(t)
	seedLookups(t, db)
	svc := NewFormService(db)

	textID := fieldTypeID(t, db, models.FieldTypeText)
	numberID := fieldTypeID(t, db, models.FieldTypeNumber)

	cases := []struct {
		name  string
		input FormInput
	}{
		{"blank title", FormInput{Title: "   "}},
		{"unknown field type", FormInput{Title: "S", Fields: []FieldInput{
			{FieldKey: "a", Label: "A", FieldTypeID: 999},
		}}},
		{"attrs not an object", FormInput{Title: "S", Fields: []FieldInput{
			{FieldKey: "a", Label: "A", FieldTypeID: textID, Attrs: json.RawMessage(`[1,2]`)},
		}}},
		{"min above max value", FormInput{Title: "S", Fields: []FieldInput{
			{FieldKey: "age", Label: "Age", FieldTypeID: numberID, MinValue: strPtr("100"), MaxValue: strPtr("10")},
		}}},
		{"min above max length", FormInput{Title: "S", Fields: []FieldInput{
			{FieldKey: "a", Label: "A", FieldTypeID: textID, MinLength: intPtr(10), MaxLength: intPtr(2)},
		}}},
		{"non-numeric bound", FormInput{Title: "S", Fields: []FieldInput{
			{FieldKey: "a", Label: "A", FieldTypeID: numberID, MinValue: strPtr("abc")},
		}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CreateForm(1, tc.input)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if apperr.StatusOf(err) != 400 {
				t.Fatalf("expected 400, got %d", apperr.StatusOf(err))
			}
		})
	}
}

func TestUpdateFormPartial(t *testing.T) {
	db := setupDB(t)
	seedLookups(t, db)
	svc := NewFormService(db)

	created, err := svc.CreateForm(1, FormInput{Title: "Old Title", Description: "keep me"})
	if err != nil {
		t.Fatalf("create form: %v", err)
	}

	updated, err := svc.UpdateForm(created.ID, 2, FormUpdateInput{Title: strPtr("New Title")})
	if err != nil {
		t.Fatalf("update form: %v", err)
	}
	if updated.Title != "New Title" {
		t.Fatalf("expected title updated, got %q", updated.Title)
	}
	if updated.Description != "keep me" {
		t.Fatalf("expected description untouched, got %q", updated.Description)
	}
	if updated.UpdatedBy != 2 {
		t.Fatalf("expected updated_by 2, got %d", updated.UpdatedBy)
	}
}

func TestDeleteFormSoft(t *testing.T) {
	db := setupDB(t)
	seedLookups(t, db)
	svc := NewFormService(db)

	created, err := svc.CreateForm(1, FormInput{Title: "Short-lived"})
	if err != nil {
		t.Fatalf("create form: %v", err)
	}

	if err := svc.DeleteForm(created.ID, 1); err != nil {
		t.Fatalf("delete form: %v", err)
	}
	if _, err := svc.GetForm(created.ID); apperr.StatusOf(err) != 404 {
		t.Fatalf("expected deleted form to 404, got %v", err)
	}

	var row models.Form
	if err := db.First(&row, created.ID).Error; err != nil {
		t.Fatalf("expected row to survive soft delete: %v", err)
	}
	if row.Status != models.StatusInactive {
		t.Fatalf("expected inactive status, got %d", row.Status)
	}

	if err := svc.DeleteForm(created.ID, 1); apperr.StatusOf(err) != 404 {
		t.Fatalf("expected second delete to 404, got %v", err)
	}
}

func TestCreateFieldRejectsDuplicateKeyOnForm(t *testing.T) {
	db := setupDB(t)
	seedLookups(t, db)
	svc := NewFormService(db)

	textID := fieldTypeID(t, db, models.FieldTypeText)
	form, err := svc.CreateForm(1, FormInput{
		Title:  "Survey",
		Fields: []FieldInput{{FieldKey: "name", Label: "Name", FieldTypeID: textID}},
	})
	if err != nil {
		t.Fatalf("create form: %v", err)
	}

	_, err = svc.CreateField(form.ID, 1, FieldInput{FieldKey: "name", Label: "Name 2", FieldTypeID: textID})
	if apperr.StatusOf(err) != 400 {
		t.Fatalf("expected duplicate key to 400, got %v", err)
	}

	added, err := svc.CreateField(form.ID, 1, FieldInput{FieldKey: "phone", Label: "Phone", FieldTypeID: textID})
	if err != nil {
		t.Fatalf("create field: %v", err)
	}
	if added.FieldKey != "phone" {
		t.Fatalf("expected field key phone, got %q", added.FieldKey)
	}
}

func TestCreateFieldReusesKeyAfterSoftDelete(t *testing.T) {
	db := setupDB(t)
	seedLookups(t, db)
	svc := NewFormService(db)

	textID := fieldTypeID(t, db, models.FieldTypeText)
	form, err := svc.CreateForm(1, FormInput{
		Title:  "Survey",
		Fields: []FieldInput{{FieldKey: "name", Label: "Name", FieldTypeID: textID}},
	})
	if err != nil {
		t.Fatalf("create form: %v", err)
	}

	if err := svc.DeleteField(form.Fields[0].ID, 1); err != nil {
		t.Fatalf("delete field: %v", err)
	}

	readded, err := svc.CreateField(form.ID, 1, FieldInput{FieldKey: "name", Label: "Name v2", FieldTypeID: textID})
	if err != nil {
		t.Fatalf("expected soft-deleted key to be reusable: %v", err)
	}
	if readded.Label != "Name v2" {
		t.Fatalf("expected replacement field, got %q", readded.Label)
	}

	// The retired row stays behind for stored submissions to point at.
	var rows []models.FormField
	if err := db.Where("form_id = ? AND field_key = ?", form.ID, "name").Find(&rows).Error; err != nil {
		t.Fatalf("load fields: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected retired and live rows, got %d", len(rows))
	}
}

func TestUpdateFieldNormalizesNullAttrs(t *testing.T) {
	db := setupDB(t)
	seedLookups(t, db)
	svc := NewFormService(db)

	textID := fieldTypeID(t, db, models.FieldTypeText)
	form, err := svc.CreateForm(1, FormInput{
		Title: "Survey",
		Fields: []FieldInput{{
			FieldKey:    "name",
			Label:       "Name",
			FieldTypeID: textID,
			Attrs:       json.RawMessage(`{"rows":4}`),
		}},
	})
	if err != nil {
		t.Fatalf("create form: %v", err)
	}

	updated, err := svc.UpdateField(form.Fields[0].ID, 1, FieldInput{
		FieldKey:    "name",
		Label:       "Name",
		FieldTypeID: textID,
		Attrs:       json.RawMessage(`null`),
	})
	if err != nil {
		t.Fatalf("update field: %v", err)
	}
	if updated.AttrsJSON != "" {
		t.Fatalf("expected null attrs stored as empty, got %q", updated.AttrsJSON)
	}
}
