package engine

// scriptedDice replays fixed values; it panics when a test under-scripts.
type scriptedDice struct {
	ints   []int
	floats []float64
}

func (d *scriptedDice) Intn(n int) int {
	v := d.ints[0]
	d.ints = d.ints[1:]
	if v >= n {
		v = n - 1
	}
	return v
}

func (d *scriptedDice) Float64() float64 {
	v := d.floats[0]
	d.floats = d.floats[1:]
	return v
}
