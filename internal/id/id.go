package id

import (
	cryptoRand "crypto/rand"
	"encoding/binary"
	"io"
	"math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

var (
	mu   sync.Mutex
	mono io.Reader
)

func init() {
	// crypto/rand로 시드를 생성해 예측 불가능한 엔트로피를 확보합니다.
	// ulid.Monotonic을 사용하므로 같은 밀리초 안에서 생성된 ID도
	// 사전순으로 증가합니다.
	var seed int64
	_ = binary.Read(cryptoRand.Reader, binary.LittleEndian, &seed)
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	mono = ulid.Monotonic(rand.New(rand.NewSource(seed)), 0)
}

// New는 시간순 정렬이 가능한 ULID 문자열을 반환합니다.
// 거래 기록 ID, 포지션 핸들, 클라이언트 주문 ID에 사용됩니다.
func New() string {
	mu.Lock()
	defer mu.Unlock()

	v, err := ulid.New(ulid.Timestamp(time.Now().UTC()), mono)
	if err != nil {
		// 시간 역행이나 엔트로피 고갈이 아니면 발생하지 않습니다
		panic(err)
	}
	return v.String()
}
