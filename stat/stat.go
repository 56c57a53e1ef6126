// Package stat mirrors the information returned about a file by the
// filesystem's Fs_stat operation, kept field-compatible with the
// teacher kernel's Stat_t so dumping it to a console or test fixture
// looks the same.
package stat

/// Stat_t describes one file or directory.
type Stat_t struct {
	dev    uint
	ino    uint
	mode   uint
	size   uint
	rdev   uint
	nlink  uint
}

func (st *Stat_t) Wdev(v uint)   { st.dev = v }
func (st *Stat_t) Wino(v uint)   { st.ino = v }
func (st *Stat_t) Wmode(v uint)  { st.mode = v }
func (st *Stat_t) Wsize(v uint)  { st.size = v }
func (st *Stat_t) Wrdev(v uint)  { st.rdev = v }
func (st *Stat_t) Wnlink(v uint) { st.nlink = v }

func (st *Stat_t) Dev() uint   { return st.dev }
func (st *Stat_t) Ino() uint   { return st.ino }
func (st *Stat_t) Mode() uint  { return st.mode }
func (st *Stat_t) Size() uint  { return st.size }
func (st *Stat_t) Rdev() uint  { return st.rdev }
func (st *Stat_t) Nlink() uint { return st.nlink }
