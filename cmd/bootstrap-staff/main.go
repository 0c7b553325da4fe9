// Command bootstrap-staff provisions the back-office permission group and
// optionally creates a staff account inside it. Safe to rerun: the group
// and its permissions are created only when missing.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"golang.org/x/term"

	"github.com/volleychamp/volleychamp-api/config"
	"github.com/volleychamp/volleychamp-api/db"
	"github.com/volleychamp/volleychamp-api/models"
	"github.com/volleychamp/volleychamp-api/repositories"
	"github.com/volleychamp/volleychamp-api/services"
)

const groupName = "Admins Volleyball"

var entities = []string{"tournoi", "candidature", "declaration", "club"}
var actions = []string{"add", "change", "delete", "view"}

func main() {
	username := flag.String("username", "", "staff account to create (optional)")
	password := flag.String("password", "", "password for the new account")
	email := flag.String("email", "", "email for the new account")
	superuser := flag.Bool("superuser", false, "grant superuser instead of staff")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbConn.Close()

	userRepo := repositories.NewPostgresUserRepository(dbConn)
	ctx := context.Background()

	group, created, err := userRepo.EnsureGroup(ctx, groupName)
	if err != nil {
		logger.Error("failed to ensure permission group", slog.Any("error", err))
		os.Exit(1)
	}
	if created {
		fmt.Printf("Groupe %q créé.\n", groupName)
	} else {
		fmt.Printf("Groupe %q déjà présent.\n", groupName)
	}

	codenames := make([]string, 0, len(entities)*len(actions))
	for _, entity := range entities {
		for _, action := range actions {
			codenames = append(codenames, action+"_"+entity)
		}
	}
	added, err := userRepo.GrantPermissions(ctx, group.ID, codenames)
	if err != nil {
		logger.Error("failed to grant permissions", slog.Any("error", err))
		os.Exit(1)
	}
	fmt.Printf("Permissions : %d ajoutée(s), %d déjà en place.\n", added, len(codenames)-added)

	if *username == "" {
		return
	}
	motDePasse := *password
	if motDePasse == "" {
		motDePasse, err = promptPassword()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(2)
		}
	}

	role := "staff"
	if *superuser {
		role = "superuser"
	}
	if !confirm(fmt.Sprintf("Créer le compte %s %q ? [o/N] ", role, *username)) {
		fmt.Println("Abandonné.")
		return
	}

	hash, err := services.HashPassword(motDePasse)
	if err != nil {
		logger.Error("failed to hash password", slog.Any("error", err))
		os.Exit(1)
	}
	user := &models.User{
		Username:     *username,
		Email:        *email,
		PasswordHash: hash,
		IsStaff:      true,
		IsSuperuser:  *superuser,
	}
	if err := userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrUserUsernameConflict) {
			fmt.Fprintf(os.Stderr, "Le compte %q existe déjà.\n", *username)
			os.Exit(1)
		}
		logger.Error("failed to create user", slog.Any("error", err))
		os.Exit(1)
	}
	if err := userRepo.AddToGroup(ctx, user.ID, group.ID); err != nil {
		logger.Error("failed to add user to group", slog.Any("error", err))
		os.Exit(1)
	}
	fmt.Printf("Compte staff %q créé et ajouté au groupe %q.\n", user.Username, groupName)
}

// promptPassword reads the password twice without echoing it.
func promptPassword() (string, error) {
	fmt.Print("Mot de passe : ")
	premier, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("lecture du mot de passe : %w", err)
	}
	if len(premier) == 0 {
		return "", errors.New("le mot de passe ne peut pas être vide")
	}
	fmt.Print("Confirmez le mot de passe : ")
	second, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("lecture du mot de passe : %w", err)
	}
	if string(premier) != string(second) {
		return "", errors.New("les deux saisies ne correspondent pas")
	}
	return string(premier), nil
}

func confirm(prompt string) bool {
	fmt.Print(prompt)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "o" || answer == "oui" || answer == "y" || answer == "yes"
}
