package orderer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStart(t *testing.T) {
	b := New()
	b.SetEnv("FABRIC_CFG_PATH", "/etc/hyperledger/fabric")
	b.SetGeneral("LISTENPORT", "7050")

	inv := b.Invocation()
	assert.Equal(t, "orderer start", b.Build())
	assert.Equal(t, []string{"FABRIC_CFG_PATH=/etc/hyperledger/fabric", "ORDERER_GENERAL_LISTENPORT=7050"}, inv.Env)
	require.NotNil(t, inv.Ready)
	assert.True(t, inv.Ready.Pattern.MatchString("[orderer.common.server] Main -> INFO 00b Beginning to serve requests"))
}

func TestVersion(t *testing.T) {
	b := New()
	b.SetCommand(Version)
	assert.Equal(t, []string{"version"}, b.Args())
	assert.Nil(t, b.Invocation().Ready)
}
