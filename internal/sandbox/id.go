package sandbox

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strconv"
	"time"
)

// idPrefix names every sandbox id this module mints.
const idPrefix = "vbx"

const randomSuffixAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// newID produces an id of the form <prefix>-<agent_or_default>-<base36_ts>-<random6>.
// agent is the agent kind string, or "default" when none was requested.
func newID(agent string, now time.Time) (string, error) {
	if agent == "" {
		agent = "default"
	}
	ts := strconv.FormatInt(now.UnixNano(), 36)
	suffix, err := randomSuffix(6)
	if err != nil {
		return "", fmt.Errorf("sandbox: generating id: %w", err)
	}
	return fmt.Sprintf("%s-%s-%s-%s", idPrefix, agent, ts, suffix), nil
}

func randomSuffix(n int) (string, error) {
	out := make([]byte, n)
	max := big.NewInt(int64(len(randomSuffixAlphabet)))
	for i := range out {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		out[i] = randomSuffixAlphabet[idx.Int64()]
	}
	return string(out), nil
}
