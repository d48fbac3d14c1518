package hl7

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const sampleOrder = "MSH|^~\\&|AP-LIS|PATHOLOGY|AI-DSS|PATHOLOGY|20240101120000||OML^O33|9876543210123456|P|2.6\r" +
	"PID|1||12345^^^HOSP||Doe^Jane\r" +
	"OBR|1|ORD-001\r" +
	"SPM|1|SLIDE-001||TISSUE^BRAF"

func TestParse(t *testing.T) {
	require := require.New(t)

	t.Run("order message", func(t *testing.T) {
		msg, err := Parse(sampleOrder)
		require.NoError(err)

		require.Equal("OML^O33", msg.MessageType())
		require.Equal("9876543210123456", msg.ControlID())
		require.Equal("AP-LIS", msg.SendingApp())
		require.Equal("PATHOLOGY", msg.SendingFacility())
		require.Equal("AI-DSS", msg.ReceivingApp())
		require.Equal("PATHOLOGY", msg.ReceivingFacility())
	})

	t.Run("LF and CRLF separators", func(t *testing.T) {
		for _, sep := range []string{"\n", "\r\n"} {
			msg, err := Parse(strings.ReplaceAll(sampleOrder, "\r", sep))
			require.NoError(err)
			require.Equal("OML^O33", msg.MessageType())
		}
	})

	t.Run("empty input", func(t *testing.T) {
		_, err := Parse("")
		require.ErrorIs(err, ErrEmptyMessage)
	})

	t.Run("missing MSH", func(t *testing.T) {
		_, err := Parse("PID|1||12345")
		require.ErrorIs(err, ErrMissingMSH)
	})
}

func TestSegmentFieldNumbering(t *testing.T) {
	require := require.New(t)

	msg, err := Parse(sampleOrder)
	require.NoError(err)

	msh, ok := msg.Segment("MSH")
	require.True(ok)

	// MSH-1 is the field separator itself; numbering then follows the standard.
	require.Equal("|", msh.Field(1))
	require.Equal(`^~\&`, msh.Field(2))
	require.Equal("AP-LIS", msh.Field(3))
	require.Equal("OML^O33", msh.Field(9))

	pid, ok := msg.Segment("PID")
	require.True(ok)
	require.Equal("1", pid.Field(1))
	require.Equal("12345^^^HOSP", pid.Field(3))
	require.Equal("12345", pid.Component(3, 1))
	require.Equal("HOSP", pid.Component(3, 4))
	require.Equal("", pid.Field(99))
	require.Equal("", pid.Component(3, 9))
}

func TestOrderAccessors(t *testing.T) {
	require := require.New(t)

	msg, err := Parse(sampleOrder)
	require.NoError(err)

	require.Equal("BRAF", msg.ModelCode())
	require.Equal([]string{"SLIDE-001"}, msg.SpecimenIDs())

	t.Run("multi-specimen order", func(t *testing.T) {
		multi, err := Parse(sampleOrder + "\rSPM|2|SLIDE-002||TISSUE^BRAF")
		require.NoError(err)
		require.Equal([]string{"SLIDE-001", "SLIDE-002"}, multi.SpecimenIDs())
	})

	t.Run("no SPM segment", func(t *testing.T) {
		bare, err := Parse("MSH|^~\\&|A|B|C|D|20240101||OML^O33|1|P|2.6")
		require.NoError(err)
		require.Equal("", bare.ModelCode())
		require.Empty(bare.SpecimenIDs())
	})
}

func TestString_RoundTrip(t *testing.T) {
	require := require.New(t)

	msg, err := Parse(sampleOrder)
	require.NoError(err)
	require.Equal(sampleOrder, msg.String())
}
