package container

import (
	"fmt"

	"github.com/cloudinary/fuif/internal/transform"
	"github.com/cloudinary/fuif/internal/varint"
)

// WriteTransformList appends the transform count and, per transform,
// `((nb_params<<4)|id)` followed by its parameters, in the order the
// transforms must be applied forward.
func WriteTransformList(buf []byte, transforms []transform.Transform) []byte {
	buf = varint.Append(buf, uint64(len(transforms)))
	for _, t := range transforms {
		nbParams := 0
		if t.HasParameters() {
			nbParams = len(t.Params)
		}
		buf = varint.Append(buf, uint64(nbParams<<4|t.ID))
		for _, p := range t.Params {
			buf = varint.Append(buf, uint64(p))
		}
	}
	return buf
}

// ReadTransformList reads back what WriteTransformList wrote, returning
// the transforms in forward-apply order and the bytes consumed.
func ReadTransformList(data []byte) (transforms []transform.Transform, consumed int, err error) {
	pos := 0
	n, err := readVarint(data, &pos)
	if err != nil {
		return nil, 0, err
	}
	for i := uint64(0); i < n; i++ {
		tag, err := readVarint(data, &pos)
		if err != nil {
			return nil, 0, err
		}
		id := int(tag & 0xf)
		nbParams := int(tag >> 4)
		t := transform.New(id, nil)
		if t.HasParameters() {
			params := make([]int32, nbParams)
			for j := range params {
				p, err := readVarint(data, &pos)
				if err != nil {
					return nil, 0, err
				}
				params[j] = int32(p)
			}
			t = transform.New(id, params)
		} else if nbParams != 0 {
			return nil, 0, fmt.Errorf("%w: id %d carries no parameters but nb_params=%d", ErrInvalidTransform, id, nbParams)
		}
		transforms = append(transforms, t)
	}
	return transforms, pos, nil
}
