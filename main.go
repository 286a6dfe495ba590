package main

import (
	"log"

	"github.com/techagentng/converse/config"
	"github.com/techagentng/converse/db"
	"github.com/techagentng/converse/server"
	"github.com/techagentng/converse/services"
	"github.com/techagentng/converse/services/storage"
)

func main() {
	conf, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	gormDB := db.GetDB(conf)

	userRepo := db.NewUserRepo(gormDB)
	conversationRepo := db.NewConversationRepo(gormDB)
	pictureRepo := db.NewPictureRepo(gormDB)

	blobStore, err := storage.NewBlobStore(conf)
	if err != nil {
		log.Fatalf("error initializing blob store: %v", err)
	}

	authService := services.NewAuthService(userRepo, conf)
	conversationService := services.NewConversationService(conversationRepo, userRepo, conf)
	pictureService := services.NewPictureService(pictureRepo, blobStore, conf)

	s := &server.Server{
		Config:              conf,
		UserRepository:      userRepo,
		AuthService:         authService,
		ConversationService: conversationService,
		PictureService:      pictureService,
	}

	s.Start()
}
