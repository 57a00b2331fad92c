package coordinator

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// fake is a minimal Coordinator used to exercise the registry.
type fake struct {
	config string
}

func (f *fake) Init() error                  { return nil }
func (f *fake) Finalize()                    {}
func (f *fake) Rank() int                    { return 0 }
func (f *fake) WorldSize() int               { return 1 }
func (f *fake) Barrier()                     {}
func (f *fake) AllReduceXor(v uint64) uint64 { return v }

func init() {
	Register("fake", func(config string) (Coordinator, error) {
		return &fake{config: config}, nil
	})
}

func TestNewWithConfig(t *testing.T) {
	c, err := NewWithConfig("fake:some-config")
	require.NoError(t, err)
	require.Equal(t, "some-config", c.(*fake).config)

	c, err = NewWithConfig("fake:")
	require.NoError(t, err)
	require.Equal(t, "", c.(*fake).config)

	// An empty name selects the first registered implementation.
	c, err = NewWithConfig("")
	require.NoError(t, err)
	require.IsType(t, &fake{}, c)

	_, err = NewWithConfig("bogus:whatever")
	require.Error(t, err)
}

func TestNewHonorsEnvironment(t *testing.T) {
	t.Setenv(HOSTMESH_COORDINATOR, "fake:from-env")
	c, err := New()
	require.NoError(t, err)
	require.Equal(t, "from-env", c.(*fake).config)
}
