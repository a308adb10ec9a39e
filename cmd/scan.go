package cmd

import (
	"fmt"
	"log"

	"randomradio/core/library"
	"randomradio/db"
	"randomradio/repository"

	"github.com/spf13/cobra"
)

var scanStore bool

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan the album library",
	Long:  `Walks the albums root, lists every album and track found, and optionally stores the result in the catalog database.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()

		albums, err := library.Scan(cfg.AlbumsRoot)
		if err != nil {
			log.Fatalf("Scan failed for %s: %v", cfg.AlbumsRoot, err)
		}

		total := 0
		for _, album := range albums {
			fmt.Printf("%s (%d tracks)\n", album.Name, len(album.Tracks))
			for _, track := range album.Tracks {
				fmt.Printf("  %s\n", track.Title)
			}
			total += len(album.Tracks)
		}
		fmt.Printf("\n%d albums, %d tracks\n", len(albums), total)

		if !scanStore {
			return
		}

		if err := db.ConnectDB(cfg); err != nil {
			log.Fatalf("Failed to open catalog database: %v", err)
		}
		defer db.CloseDB()
		if err := db.InitDB(); err != nil {
			log.Fatalf("Failed to migrate catalog database: %v", err)
		}

		trackRepo := repository.NewSQLiteTrackRepository(db.GormDB)
		for _, album := range albums {
			if err := trackRepo.UpsertTracks(album.Tracks); err != nil {
				log.Fatalf("Failed to store album %s: %v", album.Name, err)
			}
		}
		fmt.Println("Catalog database updated.")
	},
}

func init() {
	scanCmd.Flags().BoolVar(&scanStore, "store", false, "store scan results in the catalog database")
	rootCmd.AddCommand(scanCmd)
}
