// Command seed fills the platform's tables with demo profiles and posts for
// local development. Never run it against a production project.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"wall/internal/config"
	"wall/internal/models"
	"wall/internal/platform"
	"wall/internal/posts"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

func main() {
	profileCount := flag.Int("profiles", 10, "number of demo profiles")
	postCount := flag.Int("posts", 40, "number of demo posts")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.Env == "production" || cfg.Env == "prod" {
		log.Fatal("refusing to seed a production environment")
	}

	db, err := platform.Connect(cfg)
	if err != nil {
		log.Fatalf("Database connection failed: %v", err)
	}

	ctx := context.Background()

	userIDs := make([]string, 0, *profileCount)
	for i := 0; i < *profileCount; i++ {
		now := time.Now().UTC()
		profile := models.Profile{
			ID:        uuid.NewString(),
			Username:  gofakeit.Username(),
			FullName:  gofakeit.Name(),
			AvatarURL: gofakeit.ImageURL(150, 150),
			Bio:       gofakeit.Sentence(8),
			Location:  gofakeit.City(),
			Networks:  []string{gofakeit.Company()},
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := db.WithContext(ctx).Create(&profile).Error; err != nil {
			log.Fatalf("Failed to create profile: %v", err)
		}
		userIDs = append(userIDs, profile.ID)
	}
	log.Printf("Created %d profiles", len(userIDs))

	repo := posts.NewRepository(db, platform.NewChanges(platform.NewRedisClient(cfg.RedisURL)))
	created := 0
	for i := 0; i < *postCount; i++ {
		author := userIDs[gofakeit.Number(0, len(userIDs)-1)]
		content := gofakeit.Sentence(gofakeit.Number(3, 20))
		if len([]rune(content)) > models.MaxPostLength {
			content = string([]rune(content)[:models.MaxPostLength])
		}
		if _, err := repo.Create(ctx, author, content, nil); err != nil {
			log.Fatalf("Failed to create post: %v", err)
		}
		created++
	}
	log.Printf("Created %d posts", created)
}
