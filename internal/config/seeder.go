package config

import (
	"context"
	"log"

	"shelftrack/internal/adapters/persistence/models"
	"shelftrack/internal/adapters/persistence/repositories"
	"shelftrack/internal/pkg/password"

	"gorm.io/gorm"
)

// Seeder handles database seeding
type Seeder struct {
	users repositories.UserRepository
	cfg   *Config
}

// NewSeeder creates a new seeder instance
func NewSeeder(db *gorm.DB, cfg *Config) *Seeder {
	return &Seeder{users: repositories.NewUserRepository(db), cfg: cfg}
}

// Run executes all seeders
func (s *Seeder) Run() error {
	log.Println("🌱 Running database seeders...")

	if err := s.seedAdminUser(); err != nil {
		log.Printf("⚠️ Admin seeder skipped: %v", err)
	}

	log.Println("✅ Database seeding completed")
	return nil
}

// seedAdminUser seeds the default admin user so a fresh install
// has a working login. Skipped when an admin already exists or
// when no seed password is configured.
func (s *Seeder) seedAdminUser() error {
	ctx := context.Background()

	count, err := s.users.CountByRole(ctx, models.RoleAdmin)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil // Admin already exists
	}

	if s.cfg.Seed.AdminPassword == "" {
		log.Println("⚠️ Skipping admin seed: SEED_ADMIN_PASSWORD not set")
		return nil
	}

	hashedPassword, err := password.Hash(s.cfg.Seed.AdminPassword)
	if err != nil {
		return err
	}

	admin := &models.User{
		Username: s.cfg.Seed.AdminUsername,
		Email:    s.cfg.Seed.AdminEmail,
		Password: hashedPassword,
		Role:     models.RoleAdmin,
		IsActive: true,
	}

	if err := s.users.Create(ctx, admin); err != nil {
		return err
	}

	log.Printf("✅ Admin user created: %s", admin.Username)
	return nil
}
