package fusion

import "testing"

func TestInferType_PriorityChain(t *testing.T) {
	tests := []struct {
		name    string
		element FusedElement
		want    ElementType
	}{
		{
			name:    "shape hint wins over keyword",
			element: FusedElement{Name: "Событие", ShapeHint: ShapeBox},
			want:    TypeTask,
		},
		{
			name:    "box hint",
			element: FusedElement{Name: "X", ShapeHint: ShapeBox},
			want:    TypeTask,
		},
		{
			name:    "circle hint",
			element: FusedElement{Name: "X", ShapeHint: ShapeCircle},
			want:    TypeEvent,
		},
		{
			name:    "diamond hint",
			element: FusedElement{Name: "X", ShapeHint: ShapeDiamond},
			want:    TypeGateway,
		},
		{
			name:    "task keyword",
			element: FusedElement{Name: "Процесс 1"},
			want:    TypeTask,
		},
		{
			name:    "event keyword",
			element: FusedElement{Name: "Начало работы"},
			want:    TypeEvent,
		},
		{
			name:    "gateway keyword",
			element: FusedElement{Name: "Решение о выдаче"},
			want:    TypeGateway,
		},
		{
			name:    "english keyword",
			element: FusedElement{Name: "Approval task"},
			want:    TypeTask,
		},
		{
			name:    "near-square large is event",
			element: FusedElement{Name: "??", BBox: BBox{X0: 0, Y0: 0, X1: 100, Y1: 100}},
			want:    TypeEvent,
		},
		{
			name:    "near-square small is gateway",
			element: FusedElement{Name: "??", BBox: BBox{X0: 0, Y0: 0, X1: 40, Y1: 40}},
			want:    TypeGateway,
		},
		{
			name:    "wide box defaults to task",
			element: FusedElement{Name: "??", BBox: BBox{X0: 0, Y0: 0, X1: 200, Y1: 50}},
			want:    TypeTask,
		},
		{
			name:    "no signal defaults to task",
			element: FusedElement{Name: "??"},
			want:    TypeTask,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := InferType(&tt.element); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}
