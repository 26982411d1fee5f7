package gesture

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gwillem/humanoid/pkg/robot"
	"github.com/gwillem/humanoid/pkg/servo"
)

func TestStand(t *testing.T) {
	neutral := robot.Calibration{robot.KneeLeft: 95}.Neutral()
	g := Stand(neutral)

	assert.Equal(t, "stand", g.Name)
	require.Len(t, g.Steps, 5)
	assert.Equal(t, neutral, g.Steps[0].Targets)

	kneeLeft, _ := robot.KneeLeft.Channel()
	kneeRight, _ := robot.KneeRight.Channel()
	assert.Equal(t, map[servo.Channel]float64{kneeRight: 120, kneeLeft: 120}, g.Steps[1].Targets)
}

func TestNeutral_CopiesTable(t *testing.T) {
	neutral := map[servo.Channel]float64{0: 90}
	g := Neutral(neutral)
	g.Steps[0].Targets[0] = 10
	assert.Equal(t, 90.0, neutral[0])
}

func TestWalk(t *testing.T) {
	one := StepForward()
	g := Walk(3)

	assert.Equal(t, "walk", g.Name)
	assert.Len(t, g.Steps, 3*len(one.Steps))
	assert.Equal(t, one.Steps[0].Targets, g.Steps[len(one.Steps)].Targets)

	assert.Empty(t, Walk(0).Steps)
}

func TestDance(t *testing.T) {
	g := Dance()
	assert.Equal(t, "dance", g.Name)
	// ready + 3 rocks + 2 waves + 2 twists + final
	assert.Len(t, g.Steps, 1+3*2+2*2+2*2+1)

	var joints []robot.JointName
	for _, ch := range g.Joints() {
		name, ok := robot.JointFor(ch)
		require.True(t, ok)
		joints = append(joints, name)
	}
	assert.ElementsMatch(t, []robot.JointName{
		robot.Head, robot.ShoulderRight, robot.ShoulderLeft,
		robot.ElbowRight, robot.ElbowLeft, robot.HipRight, robot.HipLeft,
	}, joints)
}

func TestLookup(t *testing.T) {
	neutral := robot.Calibration{}.Neutral()
	for _, name := range Names() {
		g, err := Lookup(name, neutral, 2)
		require.NoError(t, err, name)
		assert.Equal(t, name, g.Name)
		assert.NotEmpty(t, g.Steps, name)
	}

	_, err := Lookup("walk", neutral, 0)
	assert.Error(t, err)

	_, err = Lookup("moonwalk", neutral, 1)
	assert.Error(t, err)
}

func TestLookup_WalkStepsBounded(t *testing.T) {
	neutral := robot.Calibration{}.Neutral()

	g, err := Lookup("walk", neutral, MaxWalkSteps)
	require.NoError(t, err)
	assert.Len(t, g.Steps, MaxWalkSteps*len(StepForward().Steps))

	for _, n := range []int{MaxWalkSteps + 1, 1 << 60, -1} {
		_, err := Lookup("walk", neutral, n)
		assert.Error(t, err, "steps %d", n)
	}
}
