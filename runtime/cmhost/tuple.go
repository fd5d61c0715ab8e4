package cmhost

// Tuple2 through Tuple4 hold the lifted elements of an anonymous WIT
// tuple<...> of two to four elements, in every position; internal/surface
// renders any other anonymous tuple as an anonymous struct with the same
// F0, F1, ... field names. Field names follow
// the teacher's cm.Tuple convention (F0, F1, ...) rather than named fields,
// since tuple elements have no WIT-level names to draw from.

type Tuple2[T0, T1 any] struct {
	F0 T0
	F1 T1
}

type Tuple3[T0, T1, T2 any] struct {
	F0 T0
	F1 T1
	F2 T2
}

type Tuple4[T0, T1, T2, T3 any] struct {
	F0 T0
	F1 T1
	F2 T2
	F3 T3
}
