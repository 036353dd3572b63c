package codec

// Sequence32 32位序号生成器
type Sequence32 interface {
	NextVal() uint32
}
