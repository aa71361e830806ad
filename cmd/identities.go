package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var identitiesCmd = &cobra.Command{
	Use:     "identities",
	Aliases: []string{"faces"},
	Short:   "Manage enrolled identities",
}

var identitiesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List enrolled identities",
	Args:  cobra.NoArgs,
	RunE:  runIdentitiesList,
}

var identitiesDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete one enrolled identity (attendance records are kept)",
	Args:  cobra.ExactArgs(1),
	RunE:  runIdentitiesDelete,
}

var identitiesClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every enrolled identity",
	Args:  cobra.NoArgs,
	RunE:  runIdentitiesClear,
}

func init() {
	rootCmd.AddCommand(identitiesCmd)
	identitiesCmd.AddCommand(identitiesListCmd, identitiesDeleteCmd, identitiesClearCmd)

	identitiesClearCmd.Flags().Bool("yes", false, "Confirm deleting every identity")
}

func runIdentitiesList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	eng, err := openEngine(cmd.Context(), cfg, nil)
	if err != nil {
		return err
	}
	defer eng.Close()

	identities := eng.registry.List()
	if len(identities) == 0 {
		fmt.Println("No faces registered.")
		return nil
	}
	fmt.Printf("%-36s  %-24s  %s\n", "ID", "NAME", "ENROLLED")
	for _, ident := range identities {
		fmt.Printf("%-36s  %-24s  %s\n", ident.ID, ident.Name, ident.EnrolledAt.In(cfg.Location).Format("2006-01-02 15:04"))
	}
	fmt.Printf("\nTotal: %d\n", len(identities))
	return nil
}

func runIdentitiesDelete(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	eng, err := openEngine(cmd.Context(), cfg, nil)
	if err != nil {
		return err
	}
	defer eng.Close()

	if err := eng.registry.Delete(cmd.Context(), args[0]); err != nil {
		return fmt.Errorf("deleting identity %s: %w", args[0], err)
	}
	fmt.Println("Face deleted.")
	return nil
}

func runIdentitiesClear(cmd *cobra.Command, args []string) error {
	if !mustGetBool(cmd, "yes") {
		return errors.New("refusing to delete every identity without --yes")
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	eng, err := openEngine(cmd.Context(), cfg, nil)
	if err != nil {
		return err
	}
	defer eng.Close()

	removed, err := eng.registry.Clear(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Printf("All faces cleared (%d removed).\n", removed)
	return nil
}
