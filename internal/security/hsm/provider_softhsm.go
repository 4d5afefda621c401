//go:build softhsm

package hsm

import (
    "fmt"
    "sync"

    "github.com/miekg/pkcs11"

    "github.com/alovak/cardflow-gateway/internal/security"
)

// SoftHSMProvider signs gateway requests with an HMAC key that never leaves the PKCS#11 token.
// Enabled with the softhsm build tag so default builds do not need a PKCS#11 library.
type SoftHSMProvider struct {
    libPath  string
    slotID   uint
    pin      string
    keyLabel string
    mech     uint

    mu   sync.Mutex
    p11  *pkcs11.Ctx
    sess pkcs11.SessionHandle
    key  pkcs11.ObjectHandle
}

// NewSoftHSMProvider returns an HMAC-SHA256 provider; use NewSoftHSMProviderSHA1 for GGE4 signing.
func NewSoftHSMProvider(libPath string, slotID uint, pin, keyLabel string) *SoftHSMProvider {
    return &SoftHSMProvider{libPath: libPath, slotID: slotID, pin: pin, keyLabel: keyLabel, mech: pkcs11.CKM_SHA256_HMAC}
}

func NewSoftHSMProviderSHA1(libPath string, slotID uint, pin, keyLabel string) *SoftHSMProvider {
    p := NewSoftHSMProvider(libPath, slotID, pin, keyLabel)
    p.mech = pkcs11.CKM_SHA_1_HMAC
    return p
}

func (p *SoftHSMProvider) Open() error {
    p.p11 = pkcs11.New(p.libPath)
    if p.p11 == nil {
        return fmt.Errorf("load pkcs11 lib failed")
    }
    if err := p.p11.Initialize(); err != nil {
        return err
    }
    sess, err := p.p11.OpenSession(p.slotID, pkcs11.CKF_SERIAL_SESSION|pkcs11.CKF_RW_SESSION)
    if err != nil {
        _ = p.p11.Finalize()
        return err
    }
    p.sess = sess
    if err := p.p11.Login(p.sess, pkcs11.CKU_USER, p.pin); err != nil {
        _ = p.p11.CloseSession(p.sess)
        _ = p.p11.Finalize()
        return err
    }

    template := []*pkcs11.Attribute{
        pkcs11.NewAttribute(pkcs11.CKA_LABEL, p.keyLabel),
        pkcs11.NewAttribute(pkcs11.CKA_CLASS, pkcs11.CKO_SECRET_KEY),
        pkcs11.NewAttribute(pkcs11.CKA_KEY_TYPE, pkcs11.CKK_GENERIC_SECRET),
    }
    if err := p.p11.FindObjectsInit(p.sess, template); err != nil {
        return err
    }
    objs, _, err := p.p11.FindObjects(p.sess, 1)
    _ = p.p11.FindObjectsFinal(p.sess)
    if err != nil {
        return err
    }
    if len(objs) == 0 {
        return fmt.Errorf("hmac key not found by label=%s", p.keyLabel)
    }
    p.key = objs[0]
    return nil
}

func (p *SoftHSMProvider) Close() {
    p.mu.Lock()
    defer p.mu.Unlock()
    if p.p11 != nil {
        if p.sess != 0 {
            _ = p.p11.Logout(p.sess)
            _ = p.p11.CloseSession(p.sess)
        }
        _ = p.p11.Finalize()
        p.p11.Destroy()
        p.p11 = nil
    }
}

// MAC signs message inside the token. A PKCS#11 session runs one operation at a time.
func (p *SoftHSMProvider) MAC(message []byte) ([]byte, error) {
    p.mu.Lock()
    defer p.mu.Unlock()
    if p.p11 == nil {
        return nil, fmt.Errorf("hsm provider is not open")
    }
    mech := []*pkcs11.Mechanism{pkcs11.NewMechanism(p.mech, nil)}
    if err := p.p11.SignInit(p.sess, mech, p.key); err != nil {
        return nil, fmt.Errorf("sign init: %w", err)
    }
    mac, err := p.p11.Sign(p.sess, message)
    if err != nil {
        return nil, fmt.Errorf("sign: %w", err)
    }
    return mac, nil
}

var _ security.MACProvider = (*SoftHSMProvider)(nil)
