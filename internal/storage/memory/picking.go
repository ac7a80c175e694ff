package memory

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"inventory-engine/internal/domains/picking/model"
	"inventory-engine/internal/shared/apperr"
)

type orderRepository struct {
	access accessor
}

func (r *orderRepository) ListEligibleForWave(_ context.Context, siteID uuid.UUID) ([]model.SalesOrder, error) {
	var out []model.SalesOrder
	err := r.access(false, func(st *state) error {
		for _, o := range st.orders {
			if o.SiteID == siteID && o.Status == model.OrderStatusConfirmed && o.WaveID == nil {
				out = append(out, copyOrder(o))
			}
		}
		return nil
	})

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !a.RequestedDate.Equal(b.RequestedDate) {
			return a.RequestedDate.Before(b.RequestedDate)
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return bytes.Compare(a.ID[:], b.ID[:]) < 0
	})
	return out, err
}

func (r *orderRepository) Get(_ context.Context, id uuid.UUID) (*model.SalesOrder, error) {
	var out *model.SalesOrder
	err := r.access(false, func(st *state) error {
		o, ok := st.orders[id]
		if !ok {
			return apperr.OrderNotFound(id)
		}
		c := copyOrder(o)
		out = &c
		return nil
	})
	return out, err
}

func (r *orderRepository) GetMany(_ context.Context, ids []uuid.UUID) ([]model.SalesOrder, error) {
	var out []model.SalesOrder
	err := r.access(false, func(st *state) error {
		for _, id := range ids {
			if o, ok := st.orders[id]; ok {
				out = append(out, copyOrder(o))
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].OrderNumber < out[j].OrderNumber })
	return out, err
}

func (r *orderRepository) UpdateStatus(_ context.Context, id uuid.UUID, status model.OrderStatus, waveID *uuid.UUID) error {
	return r.access(true, func(st *state) error {
		o, ok := st.orders[id]
		if !ok {
			return apperr.OrderNotFound(id)
		}
		o.Status = status
		if waveID != nil {
			w := *waveID
			o.WaveID = &w
		}
		o.UpdatedAt = time.Now().UTC()
		st.orders[id] = o
		return nil
	})
}

func (r *orderRepository) AddPicked(_ context.Context, lineID uuid.UUID, qty decimal.Decimal) error {
	return r.access(true, func(st *state) error {
		for id, o := range st.orders {
			for i := range o.Lines {
				if o.Lines[i].ID == lineID {
					o = copyOrder(o)
					o.Lines[i].QtyPicked = o.Lines[i].QtyPicked.Add(qty)
					st.orders[id] = o
					return nil
				}
			}
		}
		return fmt.Errorf("sales order line %s not found", lineID)
	})
}

type waveRepository struct {
	access accessor
}

func (r *waveRepository) Create(_ context.Context, w *model.Wave) error {
	return r.access(true, func(st *state) error {
		c := *w
		c.OrderIDs = append([]uuid.UUID(nil), w.OrderIDs...)
		st.waves[w.ID] = c
		return nil
	})
}

func (r *waveRepository) Get(_ context.Context, id uuid.UUID) (*model.Wave, error) {
	var out *model.Wave
	err := r.access(false, func(st *state) error {
		w, ok := st.waves[id]
		if !ok {
			return fmt.Errorf("wave %s not found", id)
		}
		w.OrderIDs = append([]uuid.UUID(nil), w.OrderIDs...)
		out = &w
		return nil
	})
	return out, err
}

type taskRepository struct {
	access accessor
}

func (r *taskRepository) Create(_ context.Context, t *model.PickTask) error {
	return r.access(true, func(st *state) error {
		st.tasks[t.ID] = copyTask(*t)
		for _, l := range t.Lines {
			st.lineTask[l.ID] = t.ID
		}
		return nil
	})
}

func (r *taskRepository) Get(_ context.Context, id uuid.UUID) (*model.PickTask, error) {
	var out *model.PickTask
	err := r.access(false, func(st *state) error {
		t, ok := st.tasks[id]
		if !ok {
			return apperr.PickTaskNotFound(id)
		}
		c := copyTask(t)
		sort.Slice(c.Lines, func(i, j int) bool { return c.Lines[i].Sequence < c.Lines[j].Sequence })
		out = &c
		return nil
	})
	return out, err
}

func (r *taskRepository) GetLineForUpdate(_ context.Context, lineID uuid.UUID) (*model.PickTaskLine, error) {
	var out *model.PickTaskLine
	err := r.access(false, func(st *state) error {
		taskID, ok := st.lineTask[lineID]
		if !ok {
			return apperr.PickLineNotFound(lineID)
		}
		for _, l := range st.tasks[taskID].Lines {
			if l.ID == lineID {
				line := l
				out = &line
				return nil
			}
		}
		return apperr.PickLineNotFound(lineID)
	})
	return out, err
}

func (r *taskRepository) ListLinesByOrder(_ context.Context, orderID uuid.UUID) ([]model.PickTaskLine, error) {
	var out []model.PickTaskLine
	err := r.access(false, func(st *state) error {
		for _, t := range st.tasks {
			if t.SalesOrderID == orderID {
				out = append(out, t.Lines...)
			}
		}
		return nil
	})
	return out, err
}

func (r *taskRepository) UpdateLine(_ context.Context, line *model.PickTaskLine) error {
	return r.access(true, func(st *state) error {
		taskID, ok := st.lineTask[line.ID]
		if !ok {
			return apperr.PickLineNotFound(line.ID)
		}
		t := copyTask(st.tasks[taskID])
		for i := range t.Lines {
			if t.Lines[i].ID == line.ID {
				t.Lines[i] = *line
				st.tasks[taskID] = t
				return nil
			}
		}
		return apperr.PickLineNotFound(line.ID)
	})
}

func (r *taskRepository) UpdateStatus(_ context.Context, taskID uuid.UUID, status model.TaskStatus, completedAt *time.Time) error {
	return r.access(true, func(st *state) error {
		t, ok := st.tasks[taskID]
		if !ok {
			return apperr.PickTaskNotFound(taskID)
		}
		t.Status = status
		t.CompletedAt = completedAt
		st.tasks[taskID] = t
		return nil
	})
}
