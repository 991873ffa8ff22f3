package auth

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"leave-portal/internal/session"
)

type User struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	FirstName string    `gorm:"type:varchar(100);not null"`
	LastName  string    `gorm:"type:varchar(100);not null;default:''"`
	Email     string    `gorm:"type:varchar(255);uniqueIndex;not null"`
	Password  string    `gorm:"type:varchar(255);not null"`
	IsManager bool      `gorm:"not null;default:false"`
	IsActive  bool      `gorm:"default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

func (u User) Identity() session.Identity {
	return session.Identity{
		UserID:    u.ID,
		Role:      session.RoleFor(u.IsManager),
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
	}
}
