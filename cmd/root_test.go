package main

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/justice-rest/Intel-sub010/internal/discovery"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	cmds := rootCmd.Commands()

	names := make(map[string]bool)
	for _, c := range cmds {
		names[c.Name()] = true
	}

	expected := []string{"report", "capacity", "discover", "providers", "serve"}
	for _, name := range expected {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "intel", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
}

func TestReportCommand_Flags(t *testing.T) {
	require.NotNil(t, reportCmd.Flags().Lookup("name"))
	require.NotNil(t, reportCmd.Flags().Lookup("real-estate-value"))
	require.NotNil(t, reportCmd.Flags().Lookup("calc"))
}

func TestCapacityCommand_Flags(t *testing.T) {
	require.NotNil(t, capacityCmd.Flags().Lookup("age"))
	require.NotNil(t, capacityCmd.Flags().Lookup("json"))
}

func TestParseConditions(t *testing.T) {
	conditions, err := parseConditions([]string{
		"wealth=Owns real estate worth over $1M",
		"giving=Has made a six-figure charitable gift",
	})
	require.NoError(t, err)
	assert.Equal(t, []discovery.MatchCondition{
		{Name: "wealth", Description: "Owns real estate worth over $1M"},
		{Name: "giving", Description: "Has made a six-figure charitable gift"},
	}, conditions)
}

func TestParseConditions_Invalid(t *testing.T) {
	_, err := parseConditions([]string{"no-separator"})
	require.Error(t, err)

	_, err = parseConditions([]string{"=empty name"})
	require.Error(t, err)
}

func TestCapacityFlags_SetVsUnset(t *testing.T) {
	var f capacityFlags
	fresh := &cobra.Command{Use: "scratch"}
	f.register(fresh)
	require.NoError(t, fresh.Flags().Parse([]string{
		"--real-estate-value", "500000",
		"--properties", "2",
		"--age", "45",
	}))

	in := f.inputs(fresh)
	require.NotNil(t, in.RealEstateValue)
	assert.Equal(t, 500000.0, *in.RealEstateValue)
	require.NotNil(t, in.PropertyCount)
	assert.Equal(t, 2, *in.PropertyCount)
	require.NotNil(t, in.Age)
	assert.Equal(t, 45, *in.Age)

	assert.Nil(t, in.Salary, "unset salary must stay nil")
	assert.Nil(t, in.RecentGiving, "unset recent giving must stay nil")
	assert.Nil(t, in.MultiOrgDonor, "unset generosity flag must stay nil")
}
