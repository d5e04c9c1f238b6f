package services

import (
	"civicform-backend/internal/apperr"
	"civicform-backend/internal/models"

	"gorm.io/gorm"
)

type UserService struct {
	db *gorm.DB
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

// Profile resolves the ward/booth/role view of a user that the accessibility
// engine and report hierarchy filtering run against.
func (s *UserService) Profile(userID uint) (UserProfile, error) {
	var user models.User
	err := s.db.Where("id = ? AND status = ?", userID, models.StatusActive).
		Preload("Roles", func(db *gorm.DB) *gorm.DB {
			return db.Where("status = ?", models.StatusActive)
		}).
		First(&user).Error
	if err != nil {
		return UserProfile{}, apperr.Unauthorized("user not found")
	}

	profile := UserProfile{
		ID:            user.ID,
		WardNumberID:  user.WardNumberID,
		BoothNumberID: user.BoothNumberID,
	}
	for _, role := range user.Roles {
		profile.RoleIDs = append(profile.RoleIDs, role.ID)
	}
	return profile, nil
}

// DescendantRoleIDs walks the role tree downward from the given roles,
// inclusive of the starting set.
func (s *UserService) DescendantRoleIDs(roleIDs []uint) ([]uint, error) {
	if len(roleIDs) == 0 {
		return nil, nil
	}

	var roles []models.Role
	if err := s.db.Where("status = ?", models.StatusActive).Find(&roles).Error; err != nil {
		return nil, err
	}

	children := make(map[uint][]uint)
	for _, role := range roles {
		if role.ParentID != nil {
			children[*role.ParentID] = append(children[*role.ParentID], role.ID)
		}
	}

	seen := make(map[uint]bool)
	queue := append([]uint{}, roleIDs...)
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if seen[id] {
			continue
		}
		seen[id] = true
		queue = append(queue, children[id]...)
	}

	out := make([]uint, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	return out, nil
}

// UserIDsWithRoles returns ids of active users holding any of the roles.
func (s *UserService) UserIDsWithRoles(roleIDs []uint) ([]uint, error) {
	if len(roleIDs) == 0 {
		return nil, nil
	}
	var ids []uint
	err := s.db.Model(&models.User{}).
		Joins("JOIN user_roles ur ON ur.user_id = users.id").
		Where("ur.role_id IN ? AND users.status = ?", roleIDs, models.StatusActive).
		Distinct().
		Pluck("users.id", &ids).Error
	return ids, err
}
