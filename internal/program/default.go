package program

// Default returns the built-in program used when no program file is
// configured: wait for the user, then three rounds of work and rest, then a
// cool-down.
func Default() *Program {
	return MustNew(
		[]Phase{
			ReceiveInput(),
			TimeFor(45),
			TimeFor(15),
			Repeat(1, 0),
			TimeFor(120),
		},
		[]int{3},
		WithName("rounds"),
		WithLabels([]string{"Ready", "Work", "Rest", "", "Cool down"}),
	)
}
