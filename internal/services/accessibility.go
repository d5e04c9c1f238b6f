package services

import (
	"civicform-backend/internal/apperr"
	"civicform-backend/internal/models"

	"gorm.io/gorm"
)

// Scope is one ward/booth dimension of an accessibility rule with the -1
// sentinel already decoded. Roles have no wildcard and stay plain ids.
type Scope struct {
	Any bool
	ID  int64
}

func ScopeFrom(v int64) Scope {
	if v == models.WildcardID {
		return Scope{Any: true}
	}
	return Scope{ID: v}
}

func (s Scope) Matches(v *uint) bool {
	if v == nil {
		return false
	}
	return s.Any || s.ID == int64(*v)
}

// UserProfile is the resolved ward/booth/role view of a user that all
// accessibility decisions are made against.
type UserProfile struct {
	ID            uint
	WardNumberID  *uint
	BoothNumberID *uint
	RoleIDs       []uint
}

func (p UserProfile) hasRole(roleID uint) bool {
	for _, id := range p.RoleIDs {
		if id == roleID {
			return true
		}
	}
	return false
}

// CanAccess reports whether the profile matches at least one active rule.
// An event with no rules is accessible to no one, and a user missing a ward,
// booth or any role is always denied.
func CanAccess(profile UserProfile, rules []models.FormEventAccessibility) bool {
	if profile.WardNumberID == nil || profile.BoothNumberID == nil || len(profile.RoleIDs) == 0 {
		return false
	}
	for _, rule := range rules {
		if rule.Status != models.StatusActive {
			continue
		}
		if ScopeFrom(rule.WardNumberID).Matches(profile.WardNumberID) &&
			ScopeFrom(rule.BoothNumberID).Matches(profile.BoothNumberID) &&
			profile.hasRole(rule.UserRoleID) {
			return true
		}
	}
	return false
}

type AccessibilityInput struct {
	WardNumberID  int64 `json:"ward_number_id"`
	BoothNumberID int64 `json:"booth_number_id"`
	UserRoleID    int64 `json:"user_role_id"`
}

// ValidateAccessibilityPayload checks shape only; referenced ids are verified
// against the lookup tables separately.
func ValidateAccessibilityPayload(rules []AccessibilityInput) error {
	if len(rules) == 0 {
		return apperr.BadRequest("accessibility must be a non-empty array")
	}
	for _, r := range rules {
		if r.WardNumberID != models.WildcardID && r.WardNumberID <= 0 {
			return apperr.BadRequest("ward_number_id must be -1 or a positive integer")
		}
		if r.BoothNumberID != models.WildcardID && r.BoothNumberID <= 0 {
			return apperr.BadRequest("booth_number_id must be -1 or a positive integer")
		}
		if r.UserRoleID <= 0 {
			return apperr.BadRequest("user_role_id must be a positive integer")
		}
	}
	return nil
}

type AccessibilityService struct {
	db *gorm.DB
}

func NewAccessibilityService(db *gorm.DB) *AccessibilityService {
	return &AccessibilityService{db: db}
}

// EnsureReferencesExist verifies every concrete ward, booth and role id in the
// payload against its lookup table, one count query per dimension.
func (s *AccessibilityService) EnsureReferencesExist(rules []AccessibilityInput) error {
	wardIDs := map[int64]bool{}
	boothIDs := map[int64]bool{}
	roleIDs := map[int64]bool{}
	for _, r := range rules {
		if r.WardNumberID != models.WildcardID {
			wardIDs[r.WardNumberID] = true
		}
		if r.BoothNumberID != models.WildcardID {
			boothIDs[r.BoothNumberID] = true
		}
		roleIDs[r.UserRoleID] = true
	}

	if err := s.countMatches(&models.Ward{}, keys(wardIDs), "ward"); err != nil {
		return err
	}
	if err := s.countMatches(&models.Booth{}, keys(boothIDs), "booth"); err != nil {
		return err
	}
	return s.countMatches(&models.Role{}, keys(roleIDs), "role")
}

func (s *AccessibilityService) countMatches(model interface{}, ids []int64, dimension string) error {
	if len(ids) == 0 {
		return nil
	}
	var count int64
	if err := s.db.Model(model).
		Where("id IN ? AND status = ?", ids, models.StatusActive).
		Count(&count).Error; err != nil {
		return err
	}
	if count != int64(len(ids)) {
		return apperr.BadRequest("one or more %s values are invalid", dimension)
	}
	return nil
}

func keys(set map[int64]bool) []int64 {
	out := make([]int64, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	return out
}
