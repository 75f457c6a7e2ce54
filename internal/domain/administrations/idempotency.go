package administrations

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// La clave de idempotencia identifica "este slot de dosis exacto":
//
//	programada: animalID:regimenID:diaLocalISO:slotIndex
//	PRN:        animalID:regimenID:diaLocalISO:prn:<uuid>
//
// Para dosis programadas la clave es determinista: el mismo cuidador
// reintentando la misma dosis produce la misma clave. En FIXED/TAPER el
// slot es la posición dentro de TimesLocal; en INTERVAL es el ordinal
// regimens.IntervalSlot de la dosis dentro de su día local, de modo que un
// régimen sub-diario (q8h, q12h) tenga una clave distinta por cada dosis
// del día. Para PRN cada envío es un evento distinto por decisión de
// diseño, así que la unicidad viene de un sufijo aleatorio y no del slot.
//
// El día local se calcula en la zona del ANIMAL, de modo que cuidadores en
// distintas zonas compartan el mismo día calendario.

var keyPattern = regexp.MustCompile(
	`^([0-9a-fA-F-]{36}):([0-9a-fA-F-]{36}):(\d{4}-\d{2}-\d{2}):(\d+|prn:[0-9a-fA-F-]{36})$`,
)

// BuildKey arma la clave determinista de una dosis programada.
func BuildKey(animalID, regimenID, localDayISO string, slotIndex int) string {
	return fmt.Sprintf("%s:%s:%s:%d", animalID, regimenID, localDayISO, slotIndex)
}

// BuildPRNKey arma la clave de una dosis a demanda (sufijo aleatorio).
func BuildPRNKey(animalID, regimenID, localDayISO string) string {
	return fmt.Sprintf("%s:%s:%s:prn:%s", animalID, regimenID, localDayISO, uuid.NewString())
}

// KeyParts es la clave ya descompuesta y validada.
type KeyParts struct {
	raw       string
	AnimalID  string
	RegimenID string
	LocalDay  string
	SlotIndex int // -1 para PRN
	PRN       bool
}

// String devuelve la clave original normalizada (sin espacios).
func (p KeyParts) String() string { return p.raw }

// ParseKey valida el formato por patrón (el cliente no elige claves libres)
// y cruza el prefijo contra el animal y régimen del request, para que una
// clave no pueda suplantar dosis de otro animal u otro régimen.
func ParseKey(key, animalID, regimenID string) (KeyParts, error) {
	key = strings.TrimSpace(key)
	m := keyPattern.FindStringSubmatch(key)
	if m == nil {
		return KeyParts{}, fmt.Errorf("malformed idempotency key")
	}

	p := KeyParts{
		raw:       key,
		AnimalID:  m[1],
		RegimenID: m[2],
		LocalDay:  m[3],
		SlotIndex: -1,
	}
	if p.AnimalID != animalID || p.RegimenID != regimenID {
		return KeyParts{}, fmt.Errorf("idempotency key does not match animal/regimen")
	}

	if strings.HasPrefix(m[4], "prn:") {
		p.PRN = true
		return p, nil
	}

	n, err := strconv.Atoi(m[4])
	if err != nil {
		return KeyParts{}, fmt.Errorf("malformed slot index")
	}
	p.SlotIndex = n
	return p, nil
}
