package database

import (
	"context"
	"fmt"
	"log"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"github.com/goccy/go-json"
	"google.golang.org/api/option"

	"cinelog/internal/config"
)

// Firebase bundles the clients built from one Firebase app.
type Firebase struct {
	App       *firebase.App
	Firestore *firestore.Client
	Auth      *auth.Client
}

// NewFirebase initializes the Firebase app from service account fields in
// config, or from application default credentials when they are absent.
func NewFirebase(ctx context.Context, cfg *config.Config) (*Firebase, error) {
	var opts []option.ClientOption
	if cfg.FirebaseClientEmail != "" && cfg.FirebasePrivateKey != "" {
		creds := map[string]string{
			"type":         "service_account",
			"project_id":   cfg.FirebaseProjectID,
			"client_email": cfg.FirebaseClientEmail,
			"private_key":  cfg.FirebasePrivateKey,
			"token_uri":    "https://oauth2.googleapis.com/token",
		}
		credsJSON, err := json.Marshal(creds)
		if err != nil {
			return nil, fmt.Errorf("marshal firebase credentials: %w", err)
		}
		opts = append(opts, option.WithCredentialsJSON(credsJSON))
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.FirebaseProjectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("init firebase app: %w", err)
	}

	fs, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("init firestore client: %w", err)
	}

	authClient, err := app.Auth(ctx)
	if err != nil {
		fs.Close()
		return nil, fmt.Errorf("init firebase auth client: %w", err)
	}

	log.Printf("[Database] Firebase initialized: project=%s", cfg.FirebaseProjectID)
	return &Firebase{App: app, Firestore: fs, Auth: authClient}, nil
}

func (f *Firebase) Close() error {
	return f.Firestore.Close()
}
