package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"goalstat/internal/store/sqlite"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Curate the indicator and project catalog",
}

var catalogLoadCmd = &cobra.Command{
	Use:   "load <file>",
	Short: "Load curated indicator names into the catalog",
	Long: `Load indicators from a semicolon-separated file, one "name;unit"
per line. Lines starting with # are ignored. Existing indicators keep
their id; the unit is overwritten.`,
	Args: cobra.ExactArgs(1),
	RunE: runCatalogLoad,
}

var catalogMapCmd = &cobra.Command{
	Use:   "map <file>",
	Short: "Load goal-to-project mappings",
	Long: `Load "goal;project" lines linking national projects to national
goals. Goals and projects are created when absent.`,
	Args: cobra.ExactArgs(1),
	RunE: runCatalogMap,
}

func init() {
	catalogCmd.AddCommand(catalogLoadCmd)
	catalogCmd.AddCommand(catalogMapCmd)
}

func runCatalogLoad(cmd *cobra.Command, args []string) error {
	st, err := sqlite.New(dbPath)
	if err != nil {
		return err
	}
	defer st.Close()

	count := 0
	err = eachCSVLine(args[0], func(lineNo int, fields []string) error {
		if len(fields) < 1 || fields[0] == "" {
			return fmt.Errorf("line %d: indicator name is empty", lineNo)
		}
		unit := ""
		if len(fields) > 1 {
			unit = fields[1]
		}
		if _, err := st.UpsertCatalogIndicator(cmd.Context(), fields[0], unit); err != nil {
			return err
		}
		count++
		return nil
	})
	if err != nil {
		return err
	}

	fmt.Printf("loaded %d indicators\n", count)
	return nil
}

func runCatalogMap(cmd *cobra.Command, args []string) error {
	st, err := sqlite.New(dbPath)
	if err != nil {
		return err
	}
	defer st.Close()

	count := 0
	err = eachCSVLine(args[0], func(lineNo int, fields []string) error {
		if len(fields) < 2 || fields[0] == "" || fields[1] == "" {
			return fmt.Errorf("line %d: expected goal;project", lineNo)
		}
		if err := st.AddGoalProject(cmd.Context(), fields[0], fields[1]); err != nil {
			return err
		}
		count++
		return nil
	})
	if err != nil {
		return err
	}

	fmt.Printf("loaded %d mappings\n", count)
	return nil
}

// eachCSVLine reads a semicolon-separated file line by line, skipping blank
// lines and # comments, and hands the trimmed fields to fn.
func eachCSVLine(path string, fn func(lineNo int, fields []string) error) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Split(line, ";")
		for i := range fields {
			fields[i] = strings.TrimSpace(fields[i])
		}
		if err := fn(lineNo, fields); err != nil {
			return err
		}
	}
	return scanner.Err()
}
