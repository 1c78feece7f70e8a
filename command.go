package redis

import "strings"

// CommandID is an opaque tag drawn from the closed set of known commands,
// plus the NOOP sentinel for anything the registry does not recognize.
type CommandID int

// ArgcAny marks a command whose argument count is never checked (varargs
// commands like MSET pairs, or ones where upstream validates shape).
const ArgcAny = -(1 << 30)

// Known commands. Order is insignificant; CommandID values index directly
// into the commandTable array, so NOOP must stay zero and every other
// entry must have a matching commandTable row.
const (
	NOOP CommandID = iota

	// Connection
	CmdPING
	CmdAUTH
	CmdSELECT
	CmdECHO
	CmdQUIT

	// Generic / keys
	CmdDEL
	CmdDUMP
	CmdEXISTS
	CmdEXPIRE
	CmdEXPIREAT
	CmdKEYS
	CmdMOVE
	CmdPERSIST
	CmdPEXPIRE
	CmdPEXPIREAT
	CmdPTTL
	CmdRANDOMKEY
	CmdRESTORE
	CmdSORT
	CmdTTL
	CmdTYPE

	// Strings
	CmdAPPEND
	CmdDECR
	CmdDECRBY
	CmdGET
	CmdGETBIT
	CmdGETRANGE
	CmdGETSET
	CmdINCR
	CmdINCRBY
	CmdINCRBYFLOAT
	CmdMGET
	CmdMSET
	CmdMSETNX
	CmdPSETEX
	CmdSET
	CmdSETBIT
	CmdSETEX
	CmdSETNX
	CmdSETRANGE
	CmdSTRLEN

	// Hashes
	CmdHDEL
	CmdHEXISTS
	CmdHGET
	CmdHGETALL
	CmdHINCRBY
	CmdHINCRBYFLOAT
	CmdHKEYS
	CmdHLEN
	CmdHMGET
	CmdHMSET
	CmdHSET
	CmdHSETNX
	CmdHVALS

	// Lists
	CmdLINDEX
	CmdLINSERT
	CmdLLEN
	CmdLPOP
	CmdLPUSH
	CmdLPUSHX
	CmdLRANGE
	CmdLREM
	CmdLSET
	CmdLTRIM
	CmdRPOP
	CmdRPUSH
	CmdRPUSHX

	// Sets
	CmdSADD
	CmdSCARD
	CmdSISMEMBER
	CmdSMEMBERS
	CmdSPOP
	CmdSRANDMEMBER
	CmdSREM

	// Sorted sets
	CmdZADD
	CmdZCARD
	CmdZCOUNT
	CmdZINCRBY
	CmdZRANGE
	CmdZRANGEBYSCORE
	CmdZRANK
	CmdZREM
	CmdZREMRANGEBYRANK
	CmdZREMRANGEBYSCORE
	CmdZREVRANGE
	CmdZREVRANGEBYSCORE
	CmdZREVRANK
	CmdZSCORE

	// Transactions
	CmdMULTI
	CmdEXEC
	CmdDISCARD
	CmdWATCH
	CmdUNWATCH

	// Server
	CmdFLUSHALL
	CmdFLUSHDB
	CmdINFO

	// Pub/sub — tolerated by the protocol layer only, per spec Non-goals.
	// No typed client method issues these.
	CmdSUBSCRIBE
	CmdUNSUBSCRIBE
	CmdPSUBSCRIBE
	CmdPUNSUBSCRIBE
	CmdPUBLISH

	numCommands
)

// CommandInfo is the static, per-command record spec.md §3 describes:
// {id, name, arity, expected_reply_kind}.
type CommandInfo struct {
	ID    CommandID
	Name  string
	Arity int // ArgcAny, a non-negative exact count, or -k meaning "at least k"
	Reply ReplyKind
}

// commandTable is indexed directly by CommandID. It never allocates per
// lookup: the array is built once, at package init, from the categories in
// original_source/src/redis_cmd.h.
var commandTable = [numCommands]CommandInfo{
	NOOP: {NOOP, "", ArgcAny, KindNone},

	CmdPING:   {CmdPING, "PING", ArgcAny, KindStatus},
	CmdAUTH:   {CmdAUTH, "AUTH", 1, KindStatus},
	CmdSELECT: {CmdSELECT, "SELECT", 1, KindStatus},
	CmdECHO:   {CmdECHO, "ECHO", 1, KindBulk},
	CmdQUIT:   {CmdQUIT, "QUIT", 0, KindStatus},

	CmdDEL:       {CmdDEL, "DEL", -1, KindInteger},
	CmdDUMP:      {CmdDUMP, "DUMP", 1, KindBulk},
	CmdEXISTS:    {CmdEXISTS, "EXISTS", -1, KindInteger},
	CmdEXPIRE:    {CmdEXPIRE, "EXPIRE", 2, KindInteger},
	CmdEXPIREAT:  {CmdEXPIREAT, "EXPIREAT", 2, KindInteger},
	CmdKEYS:      {CmdKEYS, "KEYS", 1, KindMultiBulk},
	CmdMOVE:      {CmdMOVE, "MOVE", 2, KindInteger},
	CmdPERSIST:   {CmdPERSIST, "PERSIST", 1, KindInteger},
	CmdPEXPIRE:   {CmdPEXPIRE, "PEXPIRE", 2, KindInteger},
	CmdPEXPIREAT: {CmdPEXPIREAT, "PEXPIREAT", 2, KindInteger},
	CmdPTTL:      {CmdPTTL, "PTTL", 1, KindInteger},
	CmdRANDOMKEY: {CmdRANDOMKEY, "RANDOMKEY", 0, KindBulk},
	CmdRESTORE:   {CmdRESTORE, "RESTORE", 3, KindStatus},
	CmdSORT:      {CmdSORT, "SORT", -1, KindMultiBulk},
	CmdTTL:       {CmdTTL, "TTL", 1, KindInteger},
	CmdTYPE:      {CmdTYPE, "TYPE", 1, KindStatus},

	CmdAPPEND:      {CmdAPPEND, "APPEND", 2, KindInteger},
	CmdDECR:        {CmdDECR, "DECR", 1, KindInteger},
	CmdDECRBY:      {CmdDECRBY, "DECRBY", 2, KindInteger},
	CmdGET:         {CmdGET, "GET", 1, KindBulk},
	CmdGETBIT:      {CmdGETBIT, "GETBIT", 2, KindInteger},
	CmdGETRANGE:    {CmdGETRANGE, "GETRANGE", 3, KindBulk},
	CmdGETSET:      {CmdGETSET, "GETSET", 2, KindBulk},
	CmdINCR:        {CmdINCR, "INCR", 1, KindInteger},
	CmdINCRBY:      {CmdINCRBY, "INCRBY", 2, KindInteger},
	CmdINCRBYFLOAT: {CmdINCRBYFLOAT, "INCRBYFLOAT", 2, KindBulk},
	CmdMGET:        {CmdMGET, "MGET", -1, KindMultiBulk},
	CmdMSET:        {CmdMSET, "MSET", ArgcAny, KindStatus},
	CmdMSETNX:      {CmdMSETNX, "MSETNX", ArgcAny, KindInteger},
	CmdPSETEX:      {CmdPSETEX, "PSETEX", 3, KindStatus},
	CmdSET:         {CmdSET, "SET", -2, KindStatus},
	CmdSETBIT:      {CmdSETBIT, "SETBIT", 3, KindInteger},
	CmdSETEX:       {CmdSETEX, "SETEX", 3, KindStatus},
	CmdSETNX:       {CmdSETNX, "SETNX", 2, KindInteger},
	CmdSETRANGE:    {CmdSETRANGE, "SETRANGE", 3, KindInteger},
	CmdSTRLEN:      {CmdSTRLEN, "STRLEN", 1, KindInteger},

	CmdHDEL:          {CmdHDEL, "HDEL", -2, KindInteger},
	CmdHEXISTS:       {CmdHEXISTS, "HEXISTS", 2, KindInteger},
	CmdHGET:          {CmdHGET, "HGET", 2, KindBulk},
	CmdHGETALL:       {CmdHGETALL, "HGETALL", 1, KindMultiBulk},
	CmdHINCRBY:       {CmdHINCRBY, "HINCRBY", 3, KindInteger},
	CmdHINCRBYFLOAT:  {CmdHINCRBYFLOAT, "HINCRBYFLOAT", 3, KindBulk},
	CmdHKEYS:         {CmdHKEYS, "HKEYS", 1, KindMultiBulk},
	CmdHLEN:          {CmdHLEN, "HLEN", 1, KindInteger},
	CmdHMGET:         {CmdHMGET, "HMGET", -2, KindMultiBulk},
	CmdHMSET:         {CmdHMSET, "HMSET", -3, KindStatus},
	CmdHSET:          {CmdHSET, "HSET", 3, KindInteger},
	CmdHSETNX:        {CmdHSETNX, "HSETNX", 3, KindInteger},
	CmdHVALS:         {CmdHVALS, "HVALS", 1, KindMultiBulk},

	CmdLINDEX:  {CmdLINDEX, "LINDEX", 2, KindBulk},
	CmdLINSERT: {CmdLINSERT, "LINSERT", 4, KindInteger},
	CmdLLEN:    {CmdLLEN, "LLEN", 1, KindInteger},
	CmdLPOP:    {CmdLPOP, "LPOP", 1, KindBulk},
	CmdLPUSH:   {CmdLPUSH, "LPUSH", -2, KindInteger},
	CmdLPUSHX:  {CmdLPUSHX, "LPUSHX", 2, KindInteger},
	CmdLRANGE:  {CmdLRANGE, "LRANGE", 3, KindMultiBulk},
	CmdLREM:    {CmdLREM, "LREM", 3, KindInteger},
	CmdLSET:    {CmdLSET, "LSET", 3, KindStatus},
	CmdLTRIM:   {CmdLTRIM, "LTRIM", 3, KindStatus},
	CmdRPOP:    {CmdRPOP, "RPOP", 1, KindBulk},
	CmdRPUSH:   {CmdRPUSH, "RPUSH", -2, KindInteger},
	CmdRPUSHX:  {CmdRPUSHX, "RPUSHX", 2, KindInteger},

	CmdSADD:        {CmdSADD, "SADD", -2, KindInteger},
	CmdSCARD:       {CmdSCARD, "SCARD", 1, KindInteger},
	CmdSISMEMBER:   {CmdSISMEMBER, "SISMEMBER", 2, KindInteger},
	CmdSMEMBERS:    {CmdSMEMBERS, "SMEMBERS", 1, KindMultiBulk},
	CmdSPOP:        {CmdSPOP, "SPOP", 1, KindBulk},
	CmdSRANDMEMBER: {CmdSRANDMEMBER, "SRANDMEMBER", 1, KindBulk},
	CmdSREM:        {CmdSREM, "SREM", -2, KindInteger},

	CmdZADD:             {CmdZADD, "ZADD", -3, KindInteger},
	CmdZCARD:            {CmdZCARD, "ZCARD", 1, KindInteger},
	CmdZCOUNT:           {CmdZCOUNT, "ZCOUNT", 3, KindInteger},
	CmdZINCRBY:          {CmdZINCRBY, "ZINCRBY", 3, KindBulk},
	CmdZRANGE:           {CmdZRANGE, "ZRANGE", -3, KindMultiBulk},
	CmdZRANGEBYSCORE:    {CmdZRANGEBYSCORE, "ZRANGEBYSCORE", -3, KindMultiBulk},
	CmdZRANK:            {CmdZRANK, "ZRANK", 2, KindDepends},
	CmdZREM:             {CmdZREM, "ZREM", -2, KindInteger},
	CmdZREMRANGEBYRANK:  {CmdZREMRANGEBYRANK, "ZREMRANGEBYRANK", 3, KindInteger},
	CmdZREMRANGEBYSCORE: {CmdZREMRANGEBYSCORE, "ZREMRANGEBYSCORE", 3, KindInteger},
	CmdZREVRANGE:        {CmdZREVRANGE, "ZREVRANGE", -3, KindMultiBulk},
	CmdZREVRANGEBYSCORE: {CmdZREVRANGEBYSCORE, "ZREVRANGEBYSCORE", -3, KindMultiBulk},
	CmdZREVRANK:         {CmdZREVRANK, "ZREVRANK", 2, KindDepends},
	CmdZSCORE:           {CmdZSCORE, "ZSCORE", 2, KindBulk},

	CmdMULTI:   {CmdMULTI, "MULTI", 0, KindStatus},
	CmdEXEC:    {CmdEXEC, "EXEC", 0, KindSpecialMultiBulk},
	CmdDISCARD: {CmdDISCARD, "DISCARD", 0, KindStatus},
	CmdWATCH:   {CmdWATCH, "WATCH", -1, KindStatus},
	CmdUNWATCH: {CmdUNWATCH, "UNWATCH", 0, KindStatus},

	CmdFLUSHALL: {CmdFLUSHALL, "FLUSHALL", ArgcAny, KindStatus},
	CmdFLUSHDB:  {CmdFLUSHDB, "FLUSHDB", ArgcAny, KindStatus},
	CmdINFO:     {CmdINFO, "INFO", ArgcAny, KindBulk},

	CmdSUBSCRIBE:    {CmdSUBSCRIBE, "SUBSCRIBE", -1, KindNone},
	CmdUNSUBSCRIBE:  {CmdUNSUBSCRIBE, "UNSUBSCRIBE", ArgcAny, KindNone},
	CmdPSUBSCRIBE:   {CmdPSUBSCRIBE, "PSUBSCRIBE", -1, KindNone},
	CmdPUNSUBSCRIBE: {CmdPUNSUBSCRIBE, "PUNSUBSCRIBE", ArgcAny, KindNone},
	CmdPUBLISH:      {CmdPUBLISH, "PUBLISH", 2, KindNone},
}

// commandByName is a case-insensitive lookup built once at init from
// commandTable; unknown names resolve to NOOP.
var commandByName map[string]CommandID

func init() {
	commandByName = make(map[string]CommandID, numCommands)
	for id := CommandID(1); id < numCommands; id++ {
		commandByName[commandTable[id].Name] = id
	}
}

// LookupCommand resolves a (case-insensitive) command name to its
// CommandID. Unknown names resolve to NOOP, which is rejected at send time.
func LookupCommand(name string) CommandID {
	id, ok := commandByName[strings.ToUpper(name)]
	if !ok {
		return NOOP
	}
	return id
}

// Info returns the static record for id. Out-of-range ids return the NOOP
// record.
func (id CommandID) Info() CommandInfo {
	if id < 0 || id >= numCommands {
		return commandTable[NOOP]
	}
	return commandTable[id]
}

// checkArgc validates n (the argument count excluding the command name)
// against arity per spec.md §3: ANY accepts everything, a non-negative
// arity requires an exact match, a negative arity requires at least |k|.
func checkArgc(arity, n int) bool {
	switch {
	case arity == ArgcAny:
		return true
	case arity >= 0:
		return n == arity
	default:
		return n >= -arity
	}
}
