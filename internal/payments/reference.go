package payments

import (
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/speps/go-hashids/v2"
)

const DefaultReferencePrefix = "SHOP"

// ReferenceGenerator issues transaction references of the form
// PREFIX-<unix nanos>-<hashid of a process wide counter>.
type ReferenceGenerator struct {
	prefix string
	hd     *hashids.HashID
	seq    atomic.Int64
	now    func() time.Time
}

func NewReferenceGenerator(prefix, salt string) (*ReferenceGenerator, error) {
	prefix = strings.ToUpper(strings.TrimSpace(prefix))
	if prefix == "" {
		prefix = DefaultReferencePrefix
	}

	hd := hashids.NewData()
	hd.Salt = salt
	hd.MinLength = 6
	h, err := hashids.NewWithData(hd)
	if err != nil {
		return nil, fmt.Errorf("hashids: %w", err)
	}

	return &ReferenceGenerator{prefix: prefix, hd: h, now: time.Now}, nil
}

func (g *ReferenceGenerator) Generate() string {
	n := g.seq.Add(1)
	suffix, err := g.hd.EncodeInt64([]int64{n})
	if err != nil {
		// only negative input fails, the counter never goes below 1
		suffix = strconv.FormatInt(n, 36)
	}
	return fmt.Sprintf("%s-%d-%s", g.prefix, g.now().UnixNano(), suffix)
}

// Prefix reports the namespace every generated reference starts with.
func (g *ReferenceGenerator) Prefix() string {
	return g.prefix
}
