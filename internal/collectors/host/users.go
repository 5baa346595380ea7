package host

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/yairfalse/vigil/pkg/types"
)

// nobodyUID is excluded from the human-account inventory.
const nobodyUID = 65534

// UserCollector lists human user accounts (uid >= minUID) from passwd.
type UserCollector struct {
	passwdFile string
	minUID     int
}

// NewUserCollector creates a collector over the given passwd file.
func NewUserCollector(passwdFile string, minUID int) *UserCollector {
	return &UserCollector{passwdFile: passwdFile, minUID: minUID}
}

func (c *UserCollector) Category() types.Category { return types.CategoryUsers }

// Collect returns "name:uid" entries for every human account.
func (c *UserCollector) Collect(ctx context.Context) ([]string, error) {
	f, err := os.Open(c.passwdFile)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", c.passwdFile, err)
	}
	defer f.Close()

	var entries []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		line := scanner.Text()
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Split(line, ":")
		if len(fields) < 3 {
			continue
		}
		uid, err := strconv.Atoi(fields[2])
		if err != nil {
			continue
		}
		if uid < c.minUID || uid == nobodyUID {
			continue
		}
		entries = append(entries, fmt.Sprintf("%s:%d", fields[0], uid))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", c.passwdFile, err)
	}
	return entries, nil
}
