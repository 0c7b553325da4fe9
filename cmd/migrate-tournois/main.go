// Command migrate-tournois backfills tournaments for legacy declarations
// that predate the tournois table. It groups orphan declarations by
// (date, categorie, sexe, zone), shows the plan, and on confirmation
// creates one published tournament per group and links the declarations,
// all in a single transaction.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/volleychamp/volleychamp-api/config"
	"github.com/volleychamp/volleychamp-api/db"
	"github.com/volleychamp/volleychamp-api/repositories"
	"github.com/volleychamp/volleychamp-api/services"
)

func main() {
	assumeYes := flag.Bool("yes", false, "skip the confirmation prompt")
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

	tournoiRepo := repositories.NewPostgresTournoiRepository(dbConn)
	declarationRepo := repositories.NewPostgresDeclarationRepository(dbConn)
	migrationService := services.NewMigrationService(dbConn, tournoiRepo, declarationRepo, logger)

	ctx := context.Background()

	groupes, err := migrationService.Analyse(ctx)
	if err != nil {
		logger.Error("analysis failed", slog.Any("error", err))
		os.Exit(1)
	}
	if len(groupes) == 0 {
		fmt.Println("Aucune déclaration orpheline, rien à migrer.")
		return
	}

	fmt.Printf("%d groupe(s) de déclarations orphelines :\n\n", len(groupes))
	for _, g := range groupes {
		fmt.Printf("  %-40s %d déclaration(s)\n", g.Libelle(), len(g.Declarations))
	}
	fmt.Println()

	if !*assumeYes && !confirm("Créer les tournois et lier les déclarations ? [o/N] ") {
		fmt.Println("Migration annulée.")
		return
	}

	summary, err := migrationService.Migrate(ctx, nil)
	if err != nil {
		logger.Error("migration failed", slog.Any("error", err))
		os.Exit(1)
	}

	fmt.Println("Migration terminée :")
	fmt.Printf("  Groupes traités        : %d\n", summary.Groupes)
	fmt.Printf("  Tournois créés         : %d\n", summary.TournoisCrees)
	fmt.Printf("  Tournois réutilisés    : %d\n", summary.TournoisReutilises)
	fmt.Printf("  Déclarations liées     : %d\n", summary.DeclarationsLiees)
	fmt.Printf("  Orphelines restantes   : %d\n", summary.OrphelinesRestantes)

	if summary.OrphelinesRestantes > 0 {
		fmt.Fprintln(os.Stderr, "ATTENTION : des déclarations orphelines subsistent, relancer l'analyse.")
		os.Exit(1)
	}
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
