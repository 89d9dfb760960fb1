package types

import (
	ssz "github.com/ferranbt/fastssz"
)

// Object is a consensus container with an SSZ encoding.
type Object interface {
	ssz.Marshaler
	ssz.Unmarshaler
}

// Phase 0 list limits.
const (
	MaxValidatorsPerCommittee = 2048
	MaxProposerSlashings      = 16
	MaxAttesterSlashings      = 2
	MaxAttestations           = 128
	MaxVoluntaryExits         = 16

	bytesPerLengthOffset = 4
)

// sszPtr constrains a pointer to a container type T.
type sszPtr[T any] interface {
	*T
	Object
}

func dynamicListSize[T any, PT sszPtr[T]](items []*T) int {
	size := bytesPerLengthOffset * len(items)
	for _, item := range items {
		size += PT(item).SizeSSZ()
	}
	return size
}

// marshalDynamicList writes the offset table followed by every element.
func marshalDynamicList[T any, PT sszPtr[T]](dst []byte, items []*T, max int) ([]byte, error) {
	if len(items) > max {
		return nil, ssz.ErrListTooBig
	}
	offset := bytesPerLengthOffset * len(items)
	for _, item := range items {
		dst = ssz.WriteOffset(dst, offset)
		offset += PT(item).SizeSSZ()
	}
	var err error
	for _, item := range items {
		if dst, err = PT(item).MarshalSSZTo(dst); err != nil {
			return nil, err
		}
	}
	return dst, nil
}

func marshalFixedList[T any, PT sszPtr[T]](dst []byte, items []*T, max int) ([]byte, error) {
	if len(items) > max {
		return nil, ssz.ErrListTooBig
	}
	var err error
	for _, item := range items {
		if dst, err = PT(item).MarshalSSZTo(dst); err != nil {
			return nil, err
		}
	}
	return dst, nil
}

func unmarshalDynamicList[T any, PT sszPtr[T]](buf []byte, max int) ([]*T, error) {
	if len(buf) == 0 {
		return nil, nil
	}
	if len(buf) < bytesPerLengthOffset {
		return nil, ssz.ErrOffset
	}
	size := uint64(len(buf))
	first := ssz.ReadOffset(buf)
	if first == 0 || first%bytesPerLengthOffset != 0 || first > size {
		return nil, ssz.ErrOffset
	}
	n := int(first / bytesPerLengthOffset)
	if n > max {
		return nil, ssz.ErrListTooBig
	}

	items := make([]*T, n)
	start := first
	for i := 0; i < n; i++ {
		end := size
		if i+1 < n {
			end = ssz.ReadOffset(buf[(i+1)*bytesPerLengthOffset:])
		}
		if end < start || end > size {
			return nil, ssz.ErrOffset
		}
		item := PT(new(T))
		if err := item.UnmarshalSSZ(buf[start:end]); err != nil {
			return nil, err
		}
		items[i] = (*T)(item)
		start = end
	}
	return items, nil
}

func unmarshalFixedList[T any, PT sszPtr[T]](buf []byte, elemSize, max int) ([]*T, error) {
	if len(buf)%elemSize != 0 {
		return nil, ssz.ErrBytesLength
	}
	n := len(buf) / elemSize
	if n > max {
		return nil, ssz.ErrListTooBig
	}
	if n == 0 {
		return nil, nil
	}
	items := make([]*T, n)
	for i := range items {
		item := PT(new(T))
		if err := item.UnmarshalSSZ(buf[i*elemSize : (i+1)*elemSize]); err != nil {
			return nil, err
		}
		items[i] = (*T)(item)
	}
	return items, nil
}

// readOffsets reads count consecutive offsets starting at buf[at:], checking
// that the first equals fixedSize and that they never decrease or run past
// the end of buf.
func readOffsets(buf []byte, at, count int, fixedSize uint64) ([]uint64, error) {
	offsets := make([]uint64, count+1)
	prev := fixedSize
	for i := 0; i < count; i++ {
		o := ssz.ReadOffset(buf[at+i*bytesPerLengthOffset:])
		if (i == 0 && o != fixedSize) || o < prev || o > uint64(len(buf)) {
			return nil, ssz.ErrOffset
		}
		offsets[i] = o
		prev = o
	}
	offsets[count] = uint64(len(buf))
	return offsets, nil
}
