// Creates (or promotes) an admin account. Registration only ever creates
// regular users, so the first admin has to be bootstrapped from the command
// line.
//
// Usage: go run scripts/create_admin.go -username admin -email admin@example.com -password <pw>

package main

import (
	"errors"
	"flag"
	"log"

	"weekly_trivia_backend/internal/config"
	"weekly_trivia_backend/internal/model"
	"weekly_trivia_backend/pkg/database"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func main() {
	username := flag.String("username", "", "admin username")
	email := flag.String("email", "", "admin email")
	password := flag.String("password", "", "admin password")
	flag.Parse()

	if *username == "" || *email == "" || *password == "" {
		log.Fatal("username, email and password are all required")
	}

	cfg, err := config.LoadConfig("configs")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	db, err := database.InitDB(&cfg.Database)
	if err != nil {
		log.Fatalf("connect database: %v", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(*password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("hash password: %v", err)
	}

	var user model.User
	err = db.Where("username = ?", *username).First(&user).Error
	switch {
	case err == nil:
		err = db.Model(&user).Updates(map[string]interface{}{
			"role":     model.RoleAdmin,
			"password": string(hash),
		}).Error
		if err != nil {
			log.Fatalf("promote user: %v", err)
		}
		log.Printf("promoted existing user %q to admin", *username)
	case errors.Is(err, gorm.ErrRecordNotFound):
		user = model.User{
			Username:   *username,
			Email:      *email,
			Password:   string(hash),
			Role:       model.RoleAdmin,
			JoinStatus: model.NotJoined,
			UserStatus: model.StatusNormal,
		}
		if err := db.Create(&user).Error; err != nil {
			log.Fatalf("create admin: %v", err)
		}
		log.Printf("created admin %q (id %d)", *username, user.ID)
	default:
		log.Fatalf("lookup user: %v", err)
	}
}
