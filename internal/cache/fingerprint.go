package cache

import (
	"fmt"
	"strconv"

	"github.com/cespare/xxhash/v2"

	"github.com/rebeliceyang/lazysearch/internal/models"
)

// Fingerprint hashes a condition together with its compile target and any
// salt that changes the output, such as a dialect or mapping file path.
func Fingerprint(target string, cond *models.SearchCondition, salt ...string) (string, error) {
	data, err := models.EncodeCondition(cond)
	if err != nil {
		return "", fmt.Errorf("failed to fingerprint condition: %w", err)
	}

	d := xxhash.New()
	_, _ = d.WriteString(target)
	for _, s := range salt {
		_, _ = d.WriteString("\x00")
		_, _ = d.WriteString(s)
	}
	_, _ = d.WriteString("\x00")
	_, _ = d.Write(data)
	return target + ":" + strconv.FormatUint(d.Sum64(), 16), nil
}
